// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPaginationCount    = 100
	MaxPaginationCount        = 100
	DefaultPaginationPage     = 1
	DefaultPaginationOrderAsc = "asc"
	PaginationOrderDesc       = "desc"
)

var ErrInvalidPaginationParameters = errors.New(
	"invalid pagination parameters",
)

// PaginationParams selects one page of an ordinal-indexed collection
type PaginationParams struct {
	Order string
	Count int
	Page  int
}

// ParsePagination reads the count, page and order query values. Count is
// clamped to [1, MaxPaginationCount] and page to the range whose offset fits
// in an int
func ParsePagination(r *http.Request) (PaginationParams, error) {
	params := PaginationParams{
		Count: DefaultPaginationCount,
		Page:  DefaultPaginationPage,
		Order: DefaultPaginationOrderAsc,
	}
	query := r.URL.Query()
	var err error
	if params.Count, err = queryInt(query.Get("count"), params.Count); err != nil {
		return PaginationParams{}, err
	}
	if params.Page, err = queryInt(query.Get("page"), params.Page); err != nil {
		return PaginationParams{}, err
	}
	if order := query.Get("order"); order != "" {
		switch strings.ToLower(order) {
		case DefaultPaginationOrderAsc:
			params.Order = DefaultPaginationOrderAsc
		case PaginationOrderDesc:
			params.Order = PaginationOrderDesc
		default:
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
	}
	params.Count = min(max(params.Count, 1), MaxPaginationCount)
	params.Page = min(max(params.Page, 1), maxPage(params.Count))
	return params, nil
}

func queryInt(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	ret, err := strconv.Atoi(value)
	if err != nil {
		return 0, ErrInvalidPaginationParameters
	}
	return ret, nil
}

// maxPage is the last page whose offset does not overflow
func maxPage(count int) int {
	return math.MaxInt/count + 1
}

// SetPaginationHeaders reports the collection size and page count
func SetPaginationHeaders(
	w http.ResponseWriter,
	totalItems int,
	params PaginationParams,
) {
	totalItems = max(totalItems, 0)
	count := params.Count
	if count < 1 {
		count = DefaultPaginationCount
	}
	totalPages := (totalItems + count - 1) / count
	w.Header().Set("X-Pagination-Count-Total", strconv.Itoa(totalItems))
	w.Header().Set("X-Pagination-Page-Total", strconv.Itoa(totalPages))
}

// Offset returns the 0-based position of the first item on the page
func (p PaginationParams) Offset() int {
	if p.Count < 1 || p.Page < 1 {
		return 0
	}
	if p.Page > maxPage(p.Count) {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Count
}

// Indexes returns the ordinals of the items on the page for a collection of
// total items, honoring the sort order. Pages past the end are empty
func (p PaginationParams) Indexes(total int) []int {
	offset := p.Offset()
	if offset >= total {
		return nil
	}
	ret := make([]int, 0, min(p.Count, total-offset))
	for i := offset; i < total && len(ret) < p.Count; i++ {
		if p.Order == PaginationOrderDesc {
			ret = append(ret, total-1-i)
			continue
		}
		ret = append(ret, i)
	}
	return ret
}
