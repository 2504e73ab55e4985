package arch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WrappedInfo is the wrapper metadata persisted next to a written image
// for kinds flagged keep-wrapped-info, so tools can identify the image
// later without re-parsing the archive header.
type WrappedInfo struct {
	Acronym  string `yaml:"acronym"`
	KindID   uint32 `yaml:"kind_id"`
	FileSize uint32 `yaml:"file_size"`
	SignType uint32 `yaml:"sign_type"`
	KeyIndex uint32 `yaml:"key_index"`
	ZipMode  string `yaml:"zip_mode"`
}

// WrappedInfoPath returns the sidecar location for a target image.
func WrappedInfoPath(target string) string {
	return target + ".wrap"
}

// ReadWrappedInfo loads the persisted sidecar for a target image.
func ReadWrappedInfo(target string) (*WrappedInfo, error) {
	data, err := os.ReadFile(WrappedInfoPath(target))
	if err != nil {
		return nil, err
	}
	var info WrappedInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing wrapped info: %w", err)
	}
	return &info, nil
}

// persistWrappedInfo writes the sidecar after a successful write or
// patch, for kinds whose property requires it.
func (d *Dispatcher) persistWrappedInfo(res *Resolution, target string, size int) error {
	if !res.Property.KeepWrappedInfo {
		return nil
	}

	info := WrappedInfo{
		Acronym:  res.Property.Acronym,
		KindID:   uint32(res.Kind),
		FileSize: res.Header.FileSize,
		SignType: res.Header.SignType,
		KeyIndex: res.Header.KeyIndex,
		ZipMode:  res.ZipMode.String(),
	}

	data, err := yaml.Marshal(&info)
	if err != nil {
		return fmt.Errorf("encoding wrapped info: %w", err)
	}
	if err := os.WriteFile(WrappedInfoPath(target), data, 0o644); err != nil {
		return fmt.Errorf("persisting wrapped info: %w", err)
	}

	d.logger.Debug("wrapped info persisted", "target", target, "acronym", info.Acronym, "image_size", size)
	return nil
}
