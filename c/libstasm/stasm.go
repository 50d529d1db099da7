// Package libstasm is a thin cgo binding to the STASM active shape model
// library. It exposes the global initialization and the single face search of
// stasm_lib.h and nothing else.
//
// STASM keeps its models and working buffers in global state. None of the
// functions here may be called concurrently; callers are expected to provide
// their own serialization.
package libstasm

// stasm_lib.h is a C++ header, so the C entry points are declared here.

/*
#cgo LDFLAGS: -lstasm -lopencv_objdetect -lopencv_imgproc -lopencv_core -lstdc++
#include <stdlib.h>

int stasm_init(const char* datadir, int trace);
int stasm_search_single(int* foundface, float* landmarks, const char* img,
	int width, int height, const char* imgpath, const char* datadir);
const char* stasm_lasterr(void);
*/
import "C"
import (
	"errors"
	"fmt"
	"unsafe"
)

// NumLandmarks is the number of points STASM fits to a face. It must match
// stasm_NLANDMARKS of the linked library.
const NumLandmarks = 77

var (
	ErrInitFailed   = errors.New("stasm_init failed")
	ErrSearchFailed = errors.New("stasm_search_single failed")
	ErrImageSize    = errors.New("image buffer does not match dimensions")
)

// Init loads the STASM models from dataDir. trace enables STASM's own
// diagnostic output on stdout.
func Init(dataDir string, trace bool) error {
	var dataDirC *C.char = C.CString(dataDir)
	defer C.free(unsafe.Pointer(dataDirC))

	var traceC C.int = 0
	if trace {
		traceC = 1
	}

	if C.stasm_init(dataDirC, traceC) == 0 {
		return fmt.Errorf("%w: %s", ErrInitFailed, LastError())
	}
	return nil
}

// LastError returns STASM's description of the most recent failure.
func LastError() string { return C.GoString(C.stasm_lasterr()) }

// SearchSingle locates the largest face in img, an 8 bit grayscale buffer of
// width*height bytes, and fits the landmarks to it.
//
// The returned slice holds 2*NumLandmarks values laid out as x0,y0,x1,y1...
// found is false when STASM did not find a face; the coordinates are then
// undefined. imgPath is only used by STASM in its own diagnostics and may be
// empty.
func SearchSingle(img []byte, width, height int, imgPath, dataDir string) (
	[]float32, bool, error) {
	if width <= 0 || height <= 0 || len(img) != width*height {
		return nil, false, fmt.Errorf("%w: %d bytes for %dx%d", ErrImageSize,
			len(img), width, height)
	}

	var imgPathC *C.char = C.CString(imgPath)
	defer C.free(unsafe.Pointer(imgPathC))
	var dataDirC *C.char = C.CString(dataDir)
	defer C.free(unsafe.Pointer(dataDirC))

	// Neither buffer contains Go pointers so both may be passed to C
	// directly.
	var landmarksC [2 * NumLandmarks]C.float
	var foundFaceC C.int

	ret := C.stasm_search_single(&foundFaceC, &landmarksC[0],
		(*C.char)(unsafe.Pointer(&img[0])), C.int(width), C.int(height),
		imgPathC, dataDirC)
	if ret == 0 {
		return nil, false, fmt.Errorf("%w: %s", ErrSearchFailed, LastError())
	}

	coords := make([]float32, len(landmarksC))
	for i, v := range landmarksC {
		coords[i] = float32(v)
	}

	return coords, foundFaceC != 0, nil
}
