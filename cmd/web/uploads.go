package main

import (
	"io/fs"
	"net/http"
)

// fileOnlyFS hides directories so the upload folder is never listed.
type fileOnlyFS struct {
	fs http.FileSystem
}

func (f fileOnlyFS) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

func uploadsHandler(dir, prefix string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(fileOnlyFS{fs: http.Dir(dir)}))
}
