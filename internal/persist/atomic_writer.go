package persist

import (
	"os"

	natomic "github.com/natefinch/atomic"
)

// writeFileAtomic stages data into a pooled buffer and writes it to path via
// a temp-file-plus-rename, so a crash mid-write never leaves a truncated
// corpus or failure entry behind.
func writeFileAtomic(pool *BufferPool, path string, data []byte) error {
	buf := pool.Get()
	defer pool.Put(buf)
	buf.Write(data)
	return natomic.WriteFile(path, buf)
}

// appendLine appends line plus a trailing newline to path, creating it if
// absent. Append-only files (plot_data, fuzz.log) are not atomic-rewrite
// candidates since every refresh only ever grows them; the pooled buffer
// here only avoids a string-concatenation allocation per call.
func appendLine(pool *BufferPool, path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := pool.Get()
	defer pool.Put(buf)
	buf.WriteString(line)
	buf.WriteByte('\n')
	_, err = f.Write(buf.Bytes())
	return err
}
