package shared

// Offset converts a 1-based page number into a row offset. Pages at or below
// zero are treated as page 1; a page past the end of the data simply yields an
// empty result set at query time.
func Offset(page, perPage int) int {
	if page <= 0 {
		page = 1
	}
	return (page - 1) * perPage
}
