package gcp

import (
	"strings"

	"google.golang.org/api/option"

	"github.com/yungbote/mealcoach-backend/internal/pkg/envutil"
)

// ClientOptionsFromEnv builds credentials for the photo bucket and label clients.
// GCP_CREDENTIALS_JSON takes precedence over GOOGLE_APPLICATION_CREDENTIALS, which
// may itself hold inline JSON or a key file path. With neither set the
// clients fall back to application default credentials.
func ClientOptionsFromEnv() []option.ClientOption {
	if raw := envutil.String("GCP_CREDENTIALS_JSON", ""); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	creds := envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "")
	switch {
	case creds == "":
		return nil
	case strings.HasPrefix(creds, "{"):
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	default:
		return []option.ClientOption{option.WithCredentialsFile(creds)}
	}
}
