// Package textutil holds small string helpers shared across ytframes:
// filesystem-safe names, trigger word normalization, and display labels.
package textutil
