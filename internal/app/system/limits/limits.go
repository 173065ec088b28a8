// internal/app/system/limits/limits.go
package limits

// Request body size limits. These keep oversized payloads from exhausting
// memory before the JSON decoder rejects them.
const (
	// MaxJSONBodySize caps volunteer upserts, query requests, and facility
	// access changes.
	MaxJSONBodySize = 1 << 20 // 1 MB

	// MaxPhotoKeySize caps the photo-link bodies; these carry a storage
	// object key, never image bytes.
	MaxPhotoKeySize = 4 << 10 // 4 KB
)
