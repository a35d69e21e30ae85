// Package filter provides the filters that run around interpolation.
//
// Green equalization runs on the mosaic before interpolation and corrects
// the brightness mismatch between the two green sub-channels of a 2x2
// sensor, either locally, from an image-wide ratio, or both. Color
// smoothing runs on the reconstructed image and median-filters the red
// and blue differences to green.
//
// Both filters read only the window they are given and never write
// outside it.
package filter
