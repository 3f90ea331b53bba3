package model

type EntryName = string

// ManifestEntry is one row of the manifest. An empty Registry means the build tool default.
type ManifestEntry struct {
	Name     EntryName
	GitSrc   string
	Registry string
}
