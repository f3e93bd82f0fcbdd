/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

func validateHistory(t *testing.T, data []byte) *gojsonschema.Result {
	t.Helper()
	schemaPath := filepath.Join("..", "..", "docs", "history.schema.json")
	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(data))
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	return result
}

func TestExportConformsToSchema(t *testing.T) {
	s := openForTest(t)
	seed(t, s, [2]string{"Dream big.", "Unknown"}, [2]string{"Be kind", "Anon"})
	entries, err := s.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	entries[0].PDFPath = "output/lime_1.pdf"

	var buf bytes.Buffer
	if err := ExportJSON(&buf, entries); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	result := validateHistory(t, buf.Bytes())
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("export does not conform to schema")
	}

	var doc HistoryDocument
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Format != HistoryFormat || len(doc.Entries) != 2 || doc.Entries[0].Quote != "Be kind" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestExportEmptyHistory(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"entries": []`)) {
		t.Fatalf("nil entries should export as an empty array: %s", buf.String())
	}
	if !validateHistory(t, buf.Bytes()).Valid() {
		t.Fatalf("empty export does not conform to schema")
	}
}

func TestSchemaRejectsUnknownColor(t *testing.T) {
	var buf bytes.Buffer
	_ = ExportJSON(&buf, []Entry{{ID: 1, Color: "teal", Quote: "q", Author: "a", PNGPath: "p.png"}})
	if validateHistory(t, buf.Bytes()).Valid() {
		t.Fatalf("schema should reject an unknown color")
	}
}
