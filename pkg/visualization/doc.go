// Package visualization renders false-colour previews of labeled slices and
// the intermediate planes of the segmentation pipeline.
package visualization
