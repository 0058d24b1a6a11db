/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"agentcanvas/internal/domain"
)

//go:embed schema/board.schema.json
var boardSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func boardSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(boardSchemaJSON))
	})
	return schema, schemaErr
}

// SchemaJSON returns the board file JSON schema.
func SchemaJSON() []byte { return append([]byte(nil), boardSchemaJSON...) }

// Validate checks raw board JSON against the schema and the rules the schema
// cannot express (unique element ids). Failures wrap ErrInvalidDocument.
func Validate(data []byte) error {
	s, err := boardSchema()
	if err != nil {
		return fmt.Errorf("load board schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if id, dup := domain.DuplicateID(doc.Elements); dup {
		return fmt.Errorf("%w: duplicate element id %q", ErrInvalidDocument, id)
	}
	return nil
}
