// Command libpixcrypt builds pixcrypt as a C shared library so other
// runtimes can scramble image bytes without touching the filesystem:
//
//	go build -buildmode=c-shared -o libpixcrypt.so ./software/libpixcrypt
//
// Every exported function returns NULL on success or an error string the
// caller must release with FreeMem, as must be done for output buffers.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"log"
	"unsafe"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

//export FreeMem
func FreeMem(ptr unsafe.Pointer) {
	C.free(ptr)
}

//export TransformImage
func TransformImage(
	inputImageBytes unsafe.Pointer, inputImageLen C.int,
	key C.longlong, algorithm *C.char, decrypt C.int,
	outputPNG **C.char, outputPNGLen *C.int,
) *C.char {
	goInputBytes := C.GoBytes(inputImageBytes, inputImageLen)

	pngBytes, err := transformImage(goInputBytes, int64(key), C.GoString(algorithm), decrypt != 0)
	if err != nil {
		return C.CString(fmt.Sprintf("TransformImage: %v", err))
	}

	*outputPNG = (*C.char)(C.CBytes(pngBytes))
	*outputPNGLen = C.int(len(pngBytes))
	return nil
}

func main() {}
