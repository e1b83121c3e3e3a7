package blogform

import "embed"

// EmbeddedAssets holds the console stylesheet served under /public/.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
