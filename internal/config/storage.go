package config

// StorageConfig locates the media bucket on disk and the base URL it is
// served under.
type StorageConfig struct {
    Root          string
    Bucket        string
    PublicBaseURL string
    MaxUploadMB   int
}

func LoadStorageConfig() StorageConfig {
    return StorageConfig{
        Root:          envStr("STORAGE_ROOT", "data"),
        Bucket:        envStr("STORAGE_BUCKET", "media"),
        PublicBaseURL: envStr("STORAGE_PUBLIC_URL", "/storage"),
        MaxUploadMB:   envInt("STORAGE_MAX_UPLOAD_MB", 25),
    }
}
