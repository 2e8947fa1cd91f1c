package cli

import "fmt"

// pageWindow is the slice of rows a listing command shows.
type pageWindow struct {
	offset int
	limit  int
	capped bool
}

// newPageWindow reconciles --limit, --offset, and --page. Only the flags the
// user changed are taken into account.
func newPageWindow(limit int, limitSet bool, offset int, offsetSet bool, page int, pageSet bool) (pageWindow, error) {
	w := pageWindow{limit: limit, capped: limitSet}
	switch {
	case pageSet && offsetSet:
		return pageWindow{}, fmt.Errorf("use either --offset or --page, not both")
	case pageSet && (!limitSet || limit <= 0):
		return pageWindow{}, fmt.Errorf("--page requires --limit > 0")
	case pageSet && page < 1:
		return pageWindow{}, fmt.Errorf("--page must be >= 1")
	case pageSet:
		w.offset = (page - 1) * limit
	case offset > 0:
		w.offset = offset
	}
	return w, nil
}

// apply cuts data[rowsKey] down to the window and records the paging fields
// (total, count, offset, limit, total_pages, next_offset) next to it.
func (w pageWindow) apply(data map[string]any, rowsKey string) {
	if data == nil {
		return
	}
	rows := asSlice(data[rowsKey])
	total := len(rows)
	start := min(w.offset, total)
	end := total
	if w.capped {
		end = min(start+max(w.limit, 0), total)
	}

	data[rowsKey] = rows[start:end]
	data["total"] = total
	data["count"] = end - start
	data["offset"] = w.offset
	delete(data, "total_pages")
	delete(data, "next_offset")
	if w.capped {
		data["limit"] = w.limit
		if w.limit > 0 {
			data["total_pages"] = (total + w.limit - 1) / w.limit
		}
	}
	if end < total {
		data["next_offset"] = end
	}
}
