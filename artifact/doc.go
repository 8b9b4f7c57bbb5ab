// Package artifact reads and writes model bundles.
//
// A bundle is a set of fitted artifacts plus the labeled reference dataset,
// stored in any blobstore.BlobStore:
//
//	CURRENT                  name of the active manifest
//	MANIFEST-000003.json     manifest (always plain JSON)
//	v000003/schema.json.zst  artifacts, optionally compressed
//	v000003/dataset.csv.lz4
//
// Publish writes artifacts first, then the manifest, then CURRENT, so a
// reader never observes a manifest whose artifacts are missing. Load
// resolves CURRENT, verifies checksums and checks that all artifacts agree
// on their shapes; any failure is a *ConfigurationError.
package artifact
