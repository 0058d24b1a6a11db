/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements board persistence and history.
// It handles create/open/save for the JSON board file with transactional writes and timestamped backups
// in a backups/ folder next to the file, and validates documents against an embedded JSON schema.
// It also manages the embedded SQLite history at <dir>/.acv/history.sqlite, which keeps saved
// element snapshots per board and can be reset without losing the board itself.
package storage
