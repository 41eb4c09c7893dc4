package services

import (
	"fmt"
	"strings"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/storage"
)

// --- Хелперы для заполнения публичных URL картинок ---

func populateUserDetails(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = "" // Важно для безопасности
	if user.AvatarKey != nil && *user.AvatarKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*user.AvatarKey)
		if url != "" {
			user.AvatarURL = &url
		}
	}
}

func populateTeamDetails(team *models.Team, uploader storage.FileUploader) {
	if team == nil {
		return
	}
	if team.CrestKey != nil && *team.CrestKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*team.CrestKey)
		if url != "" {
			team.CrestURL = &url
		}
	}
}

func populateLeagueDetails(league *models.League, uploader storage.FileUploader) {
	if league == nil {
		return
	}
	if league.LogoKey != nil && *league.LogoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*league.LogoKey)
		if url != "" {
			league.LogoURL = &url
		}
	}
}

// GetExtensionFromContentType возвращает расширение файла для
// известных типов изображений.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: '%s'", contentType)
	}
}
