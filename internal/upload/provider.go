package upload

import (
	"net/http"

	"git.home.luguber.info/inful/linkbio/internal/config"
	"git.home.luguber.info/inful/linkbio/internal/retry"
	"git.home.luguber.info/inful/linkbio/internal/storage"
)

// FromConfig builds the configured uploader. The local uploader is also
// returned so its media handler can be mounted; it is nil for Cloudinary.
func FromConfig(cfg config.UploadConfig, baseURL string, client *http.Client) (Uploader, *LocalUploader, error) {
	if cfg.Provider == config.UploadProviderLocal {
		fs, err := storage.NewFSStore(cfg.LocalDir)
		if err != nil {
			return nil, nil, err
		}
		local := NewLocalUploader(fs, baseURL)
		return local, local, nil
	}
	return NewCloudinaryUploader(cfg.Cloudinary, retry.FromConfig(cfg.Retry), client), nil, nil
}
