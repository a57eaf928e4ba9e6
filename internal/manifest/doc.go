// Package manifest reads and updates the version manifests of a GitOps
// deployment repository.
//
// A manifest lives at <environment>/<deployment type>.yaml and maps
// component names to their deployed version under a top-level section
// named after the deployment type:
//
//	applications:
//	  demo:
//	    version: 1.0.3
//	  legacy:
//	    version: 0.9.0
//	    skip_auto_version_bump: true
//
// Documents are kept as a yaml.v3 node tree, so updating one entry leaves
// key order, comments and sibling keys untouched when the file is written
// back.
package manifest
