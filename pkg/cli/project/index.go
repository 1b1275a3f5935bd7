/* Copyright 2025 StoryLab Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package project

import (
	"sort"

	"github.com/dahtruth/storylab/pkg/cli/cache"
	"github.com/dahtruth/storylab/pkg/cli/consts"
	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/pkg/errors"
)

// getLocalIndex reads the cached project index. A missing or malformed index
// reads as empty.
func getLocalIndex(ctx context.StoryLabCtx) ([]IndexEntry, error) {
	var ret []IndexEntry

	ok, err := cache.GetJSON(ctx.Cache, consts.CacheKeyProjectsIndex, &ret)
	if err != nil {
		return nil, errors.Wrap(err, "reading the local index")
	}
	if !ok {
		return []IndexEntry{}, nil
	}

	return ret, nil
}

// putLocalIndex writes the project index to the cache
func putLocalIndex(ctx context.StoryLabCtx, entries []IndexEntry) error {
	if err := cache.PutJSON(ctx.Cache, consts.CacheKeyProjectsIndex, entries); err != nil {
		return errors.Wrap(err, "writing the local index")
	}

	return nil
}

// upsertEntry removes any stale entry with the same id and prepends the fresh one
func upsertEntry(entries []IndexEntry, entry IndexEntry) []IndexEntry {
	ret := make([]IndexEntry, 0, len(entries)+1)
	ret = append(ret, entry)
	for _, e := range entries {
		if e.ID != entry.ID {
			ret = append(ret, e)
		}
	}

	return ret
}

// removeEntry drops the entry with the given id, if present
func removeEntry(entries []IndexEntry, id string) []IndexEntry {
	ret := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			ret = append(ret, e)
		}
	}

	return ret
}

// MergeIndexes merges a remote index into the local one by id, keeping
// whichever entry is strictly fresher. On a timestamp tie the local entry
// wins, avoiding churn. The result is sorted by updatedAt descending.
func MergeIndexes(local, remote []IndexEntry) []IndexEntry {
	byID := make(map[string]IndexEntry, len(local))
	order := make([]string, 0, len(local)+len(remote))

	for _, e := range local {
		byID[e.ID] = e
		order = append(order, e.ID)
	}

	for _, e := range remote {
		existing, ok := byID[e.ID]
		if !ok {
			byID[e.ID] = e
			order = append(order, e.ID)
			continue
		}

		if NewerTimestamp(e.UpdatedAt, existing.UpdatedAt) {
			byID[e.ID] = e
		}
	}

	ret := make([]IndexEntry, 0, len(order))
	for _, id := range order {
		ret = append(ret, byID[id])
	}

	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].UpdatedAt > ret[j].UpdatedAt
	})

	return ret
}
