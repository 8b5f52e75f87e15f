package kmsdrm

// DRM fourcc codes the plane manager matches buffer formats against.
// Values follow the same fourcc_code(a,b,c,d) packing as drm_fourcc.h.
const (
	FormatXRGB8888 = 0x34325258 // 'X','R','2','4'
	FormatARGB8888 = 0x34325241 // 'A','R','2','4'
)
