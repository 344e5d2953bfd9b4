package fat16

import (
	"github.com/RyanStan/ConiferOS/internal/defs"
	"github.com/RyanStan/ConiferOS/internal/vfs"
)

// Driver adapts a mounted FS_t to the vfs.Driver_i contract, mirroring
// the source's "struct filesystem fat16_fs = {.resolve=fat16_resolve,
// .open=fat16_open}" -- a named driver object wrapping the concrete
// implementation.
type Driver struct {
	FS *FS_t
}

func (d *Driver) Name() string { return "FAT16" }

func (d *Driver) Open(parts []string, mode string) (interface{}, defs.Err_t) {
	return d.FS.Open(parts, mode)
}

func (d *Driver) Read(priv interface{}, elemSize, nmemb int, dst []byte) (int, defs.Err_t) {
	return d.FS.Read(priv.(*FileDescriptor_t), elemSize, nmemb, dst)
}

func (d *Driver) Seek(priv interface{}, offset int, whence int) defs.Err_t {
	return d.FS.Seek(priv.(*FileDescriptor_t), offset, Whence(whence))
}

func (d *Driver) Stat(priv interface{}) vfs.Stat_t {
	s := d.FS.Stat(priv.(*FileDescriptor_t))
	return vfs.Stat_t{Flags: s.Flags, Filesize: s.Filesize}
}

func (d *Driver) Close(priv interface{}) {
	d.FS.Close(priv.(*FileDescriptor_t))
}
