package storage

import (
	"context"
	"fmt"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader хранит картинки приложения: аватары пользователей,
// эмблемы команд и логотипы лиг.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// Ключи объектов. Расширение приходит от загруженного файла.

func AvatarKey(userID int, ext string) string {
	return fmt.Sprintf("avatars/%d%s", userID, ext)
}

func TeamCrestKey(teamID int, ext string) string {
	return fmt.Sprintf("crests/%d%s", teamID, ext)
}

func LeagueLogoKey(leagueID int, ext string) string {
	return fmt.Sprintf("league-logos/%d%s", leagueID, ext)
}
