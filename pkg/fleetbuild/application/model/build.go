package model

// LatestCachePolicy is the cache preference of the "latest" build. The versioned build
// runs moments before with the same context, so the retag always reuses its layers
// regardless of the batch-level cache flag.
const LatestCachePolicy = true

type BuildConfig struct {
	UseCache bool
	Registry string
	// Tag is nil for the build tool default tag ("latest").
	Tag *string
}

func VersionedBuild(useCache bool, registry, tag string) BuildConfig {
	return BuildConfig{
		UseCache: useCache,
		Registry: registry,
		Tag:      &tag,
	}
}

func LatestBuild(registry string) BuildConfig {
	return BuildConfig{
		UseCache: LatestCachePolicy,
		Registry: registry,
	}
}
