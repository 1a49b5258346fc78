// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech turns assistant replies into audio with the ElevenLabs
// streaming text-to-speech API and plays the result.
//
// Stage directions written between asterisks ("*smiles*") are removed before
// synthesis. A reply that is empty after cleaning is not sent.
package speech
