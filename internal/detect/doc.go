// Package detect provides source detection on sky images.
//
// The detector finds local maxima above a significance threshold in a flux
// or counts image and reports them as candidate point sources with their
// sky coordinates attached.
//
// # Pipeline
//
//  1. Background Estimation: Sigma-clipped mean and standard deviation over
//     all pixels, so bright sources do not bias the noise estimate.
//  2. Peak Finding: Pixels that exceed the threshold and are strict local
//     maxima over their 8-connected neighborhood become candidates.
//  3. Deduplication: Candidates closer than the minimum angular separation
//     are merged, keeping the brighter one.
//
// # Significance
//
// Each peak carries a significance score, (value - mean) / stddev with the
// clipped background statistics. The score is a simple signal-to-noise
// proxy, not a likelihood test statistic.
//
// # Limitations
//
//   - Extended sources are reported as one peak at their brightest pixel.
//   - Sources on the map border are found but their neighborhood test uses
//     only the pixels inside the map.
//   - Strong background gradients inflate the noise estimate; smooth or
//     subtract a background model first for diffuse-dominated maps.
package detect
