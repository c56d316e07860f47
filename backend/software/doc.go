// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package software is the CPU implementation of gpucore.Context.
//
// It runs the fluid pipeline without a GPU: shader sources are
// preprocessed and reflected for their uniforms like a driver would, and
// each fragment program executes as a Go kernel selected by the shader
// label. Row bands of a draw are shaded in parallel.
//
// The backend serves headless rendering and tests. Options emulate weaker
// devices (missing render formats, no float linear filtering) so format
// negotiation and manual filtering paths can be exercised, and
// [Context.Live] exposes resource counts for leak checks.
//
// Importing the package registers it as the "software" backend.
package software
