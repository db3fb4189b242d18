// Package partition splits index ranges and key lists evenly across workers.
package partition

// Range returns the half-open slice [start, end) of a collection of size elements
// owned by worker id out of workers. Slices of all ids cover [0, size) exactly once.
func Range(size, workers, id int) (start, end int) {
	if size <= 0 || workers <= 0 || id < 0 || id >= workers {
		return 0, 0
	}
	start = size * id / workers
	end = size * (id + 1) / workers
	if end > size {
		end = size
	}
	return start, end
}

// Keys returns the portion of keys owned by worker id.
func Keys(keys []string, workers, id int) []string {
	start, end := Range(len(keys), workers, id)
	return keys[start:end]
}
