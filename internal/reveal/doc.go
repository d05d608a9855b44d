// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal implements the progressive "typing" reveal of an assistant
// reply that was already received in full.
//
// The reply is cut into word-sized chunks by NextBoundary. A Task walks the
// boundaries one Step at a time; the caller schedules the steps (the chat
// controller uses tea.Tick) and can Cancel the task at any point, after
// which Step never produces content again.
//
// Every prefix produced is longer than the one before it, and the last write
// is always the complete reply.
package reveal
