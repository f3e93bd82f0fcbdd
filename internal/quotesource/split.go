/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package quotesource

import (
	"strings"

	"quotecard/internal/domain"
)

// Split cuts a raw reply at its first '-' into quote and author. Surrounding
// whitespace is trimmed; a reply without a hyphen is attributed to "Unknown".
// Quotation marks around the quote are kept as the source wrote them, and any
// later hyphens stay part of the author.
func Split(text string) domain.Quote {
	quote, author, found := strings.Cut(text, "-")
	quote = strings.TrimSpace(quote)
	if !found {
		return domain.Quote{Text: quote, Author: domain.UnknownAuthor}
	}
	return domain.Quote{Text: quote, Author: strings.TrimSpace(author)}
}
