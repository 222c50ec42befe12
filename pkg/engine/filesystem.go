package engine

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// FileSystem is the file-system collaborator of the engine. The execution
// core itself only checks directories for existence and deletes them when
// cleaning paths; modules use the full afero surface.
type FileSystem struct {
	fs         afero.Fs
	inputPaths []string
	outputPath string
	tempPath   string
}

// FileSystemOption configures a FileSystem.
type FileSystemOption func(*FileSystem)

// WithFs replaces the backing afero filesystem, OS by default.
func WithFs(fs afero.Fs) FileSystemOption {
	return func(f *FileSystem) { f.fs = fs }
}

// WithInputPaths sets the input paths.
func WithInputPaths(paths ...string) FileSystemOption {
	return func(f *FileSystem) { f.inputPaths = paths }
}

// WithOutputPath sets the output path.
func WithOutputPath(path string) FileSystemOption {
	return func(f *FileSystem) { f.outputPath = path }
}

// WithTempPath sets the temporary path.
func WithTempPath(path string) FileSystemOption {
	return func(f *FileSystem) { f.tempPath = path }
}

// NewFileSystem returns a FileSystem rooted in the OS filesystem with the
// conventional input/output/temp paths.
func NewFileSystem(opts ...FileSystemOption) *FileSystem {
	fileSystem := &FileSystem{
		fs:         afero.NewOsFs(),
		inputPaths: []string{"input"},
		outputPath: "output",
		tempPath:   "temp",
	}
	for _, opt := range opts {
		opt(fileSystem)
	}

	return fileSystem
}

// Fs returns the backing afero filesystem.
func (f *FileSystem) Fs() afero.Fs { return f.fs }

// InputPaths returns the configured input paths.
func (f *FileSystem) InputPaths() []string { return f.inputPaths }

// OutputPath returns the configured output path.
func (f *FileSystem) OutputPath() string { return f.outputPath }

// TempPath returns the configured temporary path.
func (f *FileSystem) TempPath() string { return f.tempPath }

// GetOutputDirectory returns a handle on the output directory.
func (f *FileSystem) GetOutputDirectory() *Directory {
	return &Directory{fs: f.fs, path: f.outputPath}
}

// GetTempDirectory returns a handle on the temporary directory.
func (f *FileSystem) GetTempDirectory() *Directory {
	return &Directory{fs: f.fs, path: f.tempPath}
}

// Directory is a handle on a directory of the engine's filesystem.
type Directory struct {
	fs   afero.Fs
	path string
}

// Path returns the directory path.
func (d *Directory) Path() string { return d.path }

// Exists reports whether the directory exists.
func (d *Directory) Exists() (bool, error) {
	ok, err := afero.DirExists(d.fs, d.path)
	if err != nil {
		return false, errors.Wrapf(err, "unable to stat directory %s", d.path)
	}

	return ok, nil
}

// Delete removes the directory. With recursive set, the directory and its
// contents are removed; otherwise the directory must be empty.
func (d *Directory) Delete(recursive bool) error {
	var err error
	if recursive {
		err = d.fs.RemoveAll(d.path)
	} else {
		err = d.fs.Remove(d.path)
	}
	if err != nil {
		return errors.Wrapf(err, "unable to delete directory %s", d.path)
	}

	return nil
}
