package vrs

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TagConventions holds the well-known tag keys VRS users are encouraged
// to follow when describing a file or a stream, ported from
// original_source/vrs/TagConventions.h. They are pure conventions: VRS
// itself never requires any of them to be present.
const (
	// Overall identification, hardware & software independent.
	TagProjectName     = "project_name"
	TagCaptureTimeEpoch = "capture_time_epoch"
	TagSessionId       = "session_id"
	TagCaptureType     = "capture_type"
	TagTagSet          = "tag_set"

	// Hardware components.
	TagDeviceType             = "device_type"
	TagDeviceVersion          = "device_version"
	TagDeviceSerial           = "device_serial"
	TagDeviceId               = "device_id"
	TagHardwareConfiguration  = "hardware_configuration"

	// Software components.
	TagOsFingerprint       = "os_fingerprint"
	TagSoftwareCompileDate = "software_compile_date"
	TagSoftwareRevision    = "software_revision"
	TagFirmwareCompileDate = "firmware_compile_date"
	TagFirmwareRevision    = "firmware_revision"

	// Multi-instance streams.
	TagDeviceRole = "device_role"

	// Key configuration/settings.
	TagImageDecimationFactor = "image_decimation_factor"
	TagCameraFrameRate       = "camera_frame_rate"
	TagDynamicExposureTarget = "iot_dynamic_exposure_target"
)

// TagSetter is implemented by anything that can attach a user tag, e.g.
// a RecordFileWriter or a Recordable. It lets the helpers below work
// against either, exactly like the template functions in
// TagConventions.h did for the two C++ types.
type TagSetter interface {
	SetTag(name, value string)
}

// AddUniqueSessionId generates a random session id, attaches it as
// TagSessionId on w, and returns the generated value.
func AddUniqueSessionId(w TagSetter) string {
	id := uuid.NewString()
	w.SetTag(TagSessionId, id)
	return id
}

// AddCaptureTime attaches the current wall-clock time, in epoch seconds,
// as TagCaptureTimeEpoch.
func AddCaptureTime(w TagSetter) {
	w.SetTag(TagCaptureTimeEpoch, strconv.FormatInt(time.Now().Unix(), 10))
}

// AddOsFingerprint attaches a best-effort OS fingerprint tag holding the
// hostname, since Go has no single equivalent to the original's
// build-fingerprint string. GOOS/GOARCH are not included.
func AddOsFingerprint(w TagSetter) {
	host, _ := os.Hostname()
	w.SetTag(TagOsFingerprint, host)
}

// AddDevice attaches the standard device identification tags.
func AddDevice(w TagSetter, deviceType, serialNumber, version string) {
	w.SetTag(TagDeviceType, deviceType)
	w.SetTag(TagDeviceSerial, serialNumber)
	w.SetTag(TagDeviceVersion, version)
}

// AddDeviceId attaches the device id tag.
func AddDeviceId(w TagSetter, id string) {
	w.SetTag(TagDeviceId, id)
}

// AddSoftwareDetails attaches the software compile-date and revision tags.
func AddSoftwareDetails(w TagSetter, compileDate, revision string) {
	w.SetTag(TagSoftwareCompileDate, compileDate)
	w.SetTag(TagSoftwareRevision, revision)
}

// AddFirmwareDetails attaches the firmware compile-date and revision tags.
func AddFirmwareDetails(w TagSetter, compileDate, revision string) {
	w.SetTag(TagFirmwareCompileDate, compileDate)
	w.SetTag(TagFirmwareRevision, revision)
}

// tagSetDocument mirrors the original's `{"tags": [...]}` JSON envelope.
type tagSetDocument struct {
	Tags []string `json:"tags"`
}

// MakeTagSet serializes a list of free-form tags into the JSON envelope
// stored under TagTagSet.
func MakeTagSet(tags []string) string {
	doc := tagSetDocument{Tags: tags}
	b, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ParseTagSet parses the JSON envelope produced by MakeTagSet. It
// reports false if jsonTagSet isn't a JSON object (it may still be a
// valid object with no "tags" key, in which case an empty slice is
// returned with ok==true).
func ParseTagSet(jsonTagSet string) (tags []string, ok bool) {
	var doc tagSetDocument
	if err := json.Unmarshal([]byte(jsonTagSet), &doc); err != nil {
		return nil, false
	}
	return doc.Tags, true
}
