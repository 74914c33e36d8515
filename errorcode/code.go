// Package errorcode implements VRS's single int error-code space,
// partitioned into domains, ported from original_source/vrs/ErrorCode.cpp.
// Built-in VRS errors occupy a small range of positive integers, with
// the DiskFile* codes covering file-system failures (platform errno
// values are not mapped to codes); dynamic "domain errors"
// (lz4/zstd/decoder failures) are registered at startup and occupy
// disjoint ranges allocated on first use.
package errorcode

import "fmt"

// Code is a VRS error code. The zero value, Success, means no error.
type Code int

// Built-in VRS error codes, ported from original_source/vrs/ErrorCode.cpp's
// sRegistry map. Values are assigned here (the original's exact integer
// values are internal implementation details not exposed by any public
// API this port needs to match bit-for-bit).
const (
	Success Code = iota
	Failure

	NotAVRSFile
	NoFileOpen
	FileAlreadyOpen
	FileNotFound
	InvalidParameter
	InvalidRequest
	InvalidRange
	InvalidDiskData
	InvalidFileSpec
	InvalidURIFormat
	InvalidURIValue
	ReadError
	NotEnoughData
	TooMuchData
	UnsupportedVRSFile
	UnsupportedDescriptionFormatVersion
	UnsupportedIndexFormatVersion
	IndexRecordError
	ReindexingError
	OperationCancelled
	RequestedFileHandlerUnavailable
	FileHandlerMismatch
	FilepathParseError
	MultichunksNotSupported

	DiskFileNotOpen
	DiskFileNotFound
	DiskFileInvalidOffset
	DiskFileNotEnoughData
	DiskFileReadOnly
	DiskFileInvalidState
	DiskFilePartialWriteError

	// firstUserCode is the first code value available to
	// RegisterDomain-allocated dynamic domains.
	firstUserCode
)

var builtinMessages = map[Code]string{
	Success:                              "Success",
	Failure:                              "Misc error",
	NotAVRSFile:                          "Not a VRS file",
	NoFileOpen:                           "No file open",
	FileAlreadyOpen:                      "File already open",
	FileNotFound:                         "File not found",
	InvalidParameter:                     "Invalid parameter",
	InvalidRequest:                       "Invalid request",
	InvalidRange:                         "Invalid range",
	InvalidDiskData:                      "Read error: invalid data",
	InvalidFileSpec:                      "Invalid file spec",
	InvalidURIFormat:                     "Invalid uri format",
	InvalidURIValue:                      "Invalid character in uri",
	ReadError:                            "Read error: failed to read data",
	NotEnoughData:                        "Read error: not enough data",
	TooMuchData:                          "Too much data",
	UnsupportedVRSFile:                   "Unsupported VRS file format version",
	UnsupportedDescriptionFormatVersion:  "Read error: unsupported description format version",
	UnsupportedIndexFormatVersion:        "Read error: unsupported index format version",
	IndexRecordError:                     "Index record error",
	ReindexingError:                      "Reindexing error",
	OperationCancelled:                   "Operation cancelled",
	RequestedFileHandlerUnavailable:      "Requested FileHandler not available",
	FileHandlerMismatch:                  "File handler mismatch",
	FilepathParseError:                   "Could not parse filepath",
	MultichunksNotSupported:              "FileHandler can't handle multiple chunks",
	DiskFileNotOpen:                      "DiskFile no file open",
	DiskFileNotFound:                     "DiskFile file not found",
	DiskFileInvalidOffset:                "DiskFile invalid offset",
	DiskFileNotEnoughData:                "DiskFile not enough data",
	DiskFileReadOnly:                     "DiskFile in read-only mode",
	DiskFileInvalidState:                 "DiskFile invalid state",
	DiskFilePartialWriteError:            "DiskFile unexpected partial write",
}

// CodeToMessage returns a human-readable message for code, falling back
// to messages registered by RegisterDomain, then to a generic
// "unknown error code" message, mirroring
// original_source/vrs/ErrorCode.cpp's errorCodeToMessage.
func CodeToMessage(code Code) string {
	if msg, ok := builtinMessages[code]; ok {
		return msg
	}
	if msg, ok := lookupDomainMessage(code); ok {
		return msg
	}
	return fmt.Sprintf("<Unknown error code '%d'>", int(code))
}

// CodeToMessageWithCode returns CodeToMessage's text, suffixed with the
// numeric code for logging.
func CodeToMessageWithCode(code Code) string {
	return fmt.Sprintf("%s (#%d)", CodeToMessage(code), int(code))
}
