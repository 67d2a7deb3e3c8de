// Seismograph - Multi-Catalog Seismic Event Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seismograph

package pipeline

import "sync"

// runPool feeds items to width workers and blocks until every item has been
// handled. Work functions own their error handling; the pool carries no
// results and never cancels siblings, so one slow or failing item cannot
// starve the rest.
func runPool[T any](width int, items []T, work func(T)) {
	if width < 1 {
		width = 1
	}
	if len(items) < width {
		width = len(items)
	}
	if width == 0 {
		return
	}

	ch := make(chan T)
	var wg sync.WaitGroup
	wg.Add(width)
	for range width {
		go func() {
			defer wg.Done()
			for item := range ch {
				work(item)
			}
		}()
	}
	for _, item := range items {
		ch <- item
	}
	close(ch)
	wg.Wait()
}
