package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EvidenceStorage отвечает за файловое хранилище вложений споров.
// Файлы раскладываются по каталогам споров; путь в базе хранится
// относительным, чтобы корень можно было переносить.
type EvidenceStorage struct {
	rootPath string
}

// NewEvidenceStorage создаёт файловое хранилище.
func NewEvidenceStorage(rootPath string) (*EvidenceStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &EvidenceStorage{rootPath: rootPath}, nil
}

// Save сохраняет содержимое файла и возвращает относительный путь.
// Запись идёт через временный файл с переименованием, чтобы в каталоге
// не оставались недописанные вложения.
func (s *EvidenceStorage) Save(disputeID, filename string, data []byte) (string, error) {
	safeName := sanitizeFilename(filename)
	fileName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), safeName)

	disputeDir := filepath.Join(s.rootPath, sanitizeFilename(disputeID))
	if err := os.MkdirAll(disputeDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать каталог спора: %w", err)
	}

	targetPath := filepath.Join(disputeDir, fileName)
	tempPath := targetPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return filepath.Join(sanitizeFilename(disputeID), fileName), nil
}

// Open возвращает абсолютный путь к сохранённому вложению.
func (s *EvidenceStorage) Open(relativePath string) (string, error) {
	target := filepath.Join(s.rootPath, relativePath)
	if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(s.rootPath)) {
		return "", fmt.Errorf("storage: недопустимый путь %q", relativePath)
	}
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("storage: файл не найден: %w", err)
	}
	return target, nil
}

// Delete удаляет файл из хранилища.
func (s *EvidenceStorage) Delete(relativePath string) error {
	target := filepath.Join(s.rootPath, relativePath)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "file"
	}
	return name
}
