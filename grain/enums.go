package grain

// CogFrameFormat, CogFrameLayout and CogAudioFormat are closed sets of
// named u32 values. An unknown numeric value round-trips through the
// FrameFormatFromUint32/FrameLayoutFromUint32/AudioFormatFromUint32
// constructors, carrying its raw value rather than being rejected,
// per §4.3.

// CogFrameFormat names a pixel/sample storage format for Video/CodedVideo
// grains.
type CogFrameFormat struct {
	name  string
	value uint32
	known bool
}

// Named CogFrameFormat values, as tabulated in the SSB/GSF reference.
var (
	FrameFormatUnknownZero = CogFrameFormat{"UNKNOWN", 0, true}
	FrameFormatU8_444      = CogFrameFormat{"U8_444", 0x00000200, true}
	FrameFormatU8_422      = CogFrameFormat{"U8_422", 0x00000201, true}
	FrameFormatU8_420      = CogFrameFormat{"U8_420", 0x00000202, true}
	FrameFormatS16LE_444   = CogFrameFormat{"S16LE_444", 0x00100200, true}
	FrameFormatS16LE_422   = CogFrameFormat{"S16LE_422", 0x00100201, true}
	FrameFormatS16LE_420   = CogFrameFormat{"S16LE_420", 0x00100202, true}
	FrameFormatS16BE_444   = CogFrameFormat{"S16BE_444", 0x00200200, true}
	FrameFormatV210        = CogFrameFormat{"v210", 0x00000301, true}
	FrameFormatRGB         = CogFrameFormat{"RGB", 0x00000400, true}
	FrameFormatRGBA        = CogFrameFormat{"RGBA", 0x00000401, true}
)

var frameFormatByValue = map[uint32]CogFrameFormat{
	FrameFormatUnknownZero.value: FrameFormatUnknownZero,
	FrameFormatU8_444.value:      FrameFormatU8_444,
	FrameFormatU8_422.value:      FrameFormatU8_422,
	FrameFormatU8_420.value:      FrameFormatU8_420,
	FrameFormatS16LE_444.value:   FrameFormatS16LE_444,
	FrameFormatS16LE_422.value:   FrameFormatS16LE_422,
	FrameFormatS16LE_420.value:   FrameFormatS16LE_420,
	FrameFormatS16BE_444.value:   FrameFormatS16BE_444,
	FrameFormatV210.value:        FrameFormatV210,
	FrameFormatRGB.value:         FrameFormatRGB,
	FrameFormatRGBA.value:        FrameFormatRGBA,
}

// FrameFormatFromUint32 returns the named CogFrameFormat for v, or an
// unknown variant carrying v verbatim.
func FrameFormatFromUint32(v uint32) CogFrameFormat {
	if f, ok := frameFormatByValue[v]; ok {
		return f
	}
	return CogFrameFormat{name: "UNKNOWN", value: v, known: false}
}

// Uint32 returns f's raw on-wire value.
func (f CogFrameFormat) Uint32() uint32 { return f.value }

// Known reports whether f is one of the named values.
func (f CogFrameFormat) Known() bool { return f.known }

// String returns f's name, or "UNKNOWN" for unrecognised values.
func (f CogFrameFormat) String() string {
	if f.known {
		return f.name
	}
	return "UNKNOWN"
}

// CogFrameLayout names the spatial/temporal layout of a Video/CodedVideo
// grain's samples.
type CogFrameLayout struct {
	name  string
	value uint32
	known bool
}

// Named CogFrameLayout values.
var (
	FrameLayoutUnknown     = CogFrameLayout{"UNKNOWN", 0, true}
	FrameLayoutFullFrame   = CogFrameLayout{"FULL_FRAME", 1, true}
	FrameLayoutSegmented   = CogFrameLayout{"SEGMENTED_FRAME", 2, true}
	FrameLayoutInterlacedTFF = CogFrameLayout{"INTERLACED_TFF", 3, true}
	FrameLayoutInterlacedBFF = CogFrameLayout{"INTERLACED_BFF", 4, true}
)

var frameLayoutByValue = map[uint32]CogFrameLayout{
	FrameLayoutUnknown.value:       FrameLayoutUnknown,
	FrameLayoutFullFrame.value:     FrameLayoutFullFrame,
	FrameLayoutSegmented.value:     FrameLayoutSegmented,
	FrameLayoutInterlacedTFF.value: FrameLayoutInterlacedTFF,
	FrameLayoutInterlacedBFF.value: FrameLayoutInterlacedBFF,
}

// FrameLayoutFromUint32 returns the named CogFrameLayout for v, or an
// unknown variant carrying v verbatim.
func FrameLayoutFromUint32(v uint32) CogFrameLayout {
	if l, ok := frameLayoutByValue[v]; ok {
		return l
	}
	return CogFrameLayout{name: "UNKNOWN", value: v, known: false}
}

// Uint32 returns l's raw on-wire value.
func (l CogFrameLayout) Uint32() uint32 { return l.value }

// Known reports whether l is one of the named values.
func (l CogFrameLayout) Known() bool { return l.known }

// String returns l's name, or "UNKNOWN" for unrecognised values.
func (l CogFrameLayout) String() string {
	if l.known {
		return l.name
	}
	return "UNKNOWN"
}

// CogAudioFormat names a sample storage format for Audio/CodedAudio
// grains.
type CogAudioFormat struct {
	name  string
	value uint32
	known bool
}

// Named CogAudioFormat values.
var (
	AudioFormatUnknown = CogAudioFormat{"UNKNOWN", 0, true}
	AudioFormatS16LE   = CogAudioFormat{"S16LE", 0x00100000, true}
	AudioFormatS16BE   = CogAudioFormat{"S16BE", 0x00200000, true}
	AudioFormatS24LE   = CogAudioFormat{"S24LE", 0x00100001, true}
	AudioFormatS32LE   = CogAudioFormat{"S32LE", 0x00100002, true}
	AudioFormatFloat32LE = CogAudioFormat{"FLOAT32LE", 0x00100003, true}
	AudioFormatAAC     = CogAudioFormat{"AAC", 0x00020000, true}
)

var audioFormatByValue = map[uint32]CogAudioFormat{
	AudioFormatUnknown.value:   AudioFormatUnknown,
	AudioFormatS16LE.value:     AudioFormatS16LE,
	AudioFormatS16BE.value:     AudioFormatS16BE,
	AudioFormatS24LE.value:     AudioFormatS24LE,
	AudioFormatS32LE.value:     AudioFormatS32LE,
	AudioFormatFloat32LE.value: AudioFormatFloat32LE,
	AudioFormatAAC.value:       AudioFormatAAC,
}

// AudioFormatFromUint32 returns the named CogAudioFormat for v, or an
// unknown variant carrying v verbatim.
func AudioFormatFromUint32(v uint32) CogAudioFormat {
	if f, ok := audioFormatByValue[v]; ok {
		return f
	}
	return CogAudioFormat{name: "UNKNOWN", value: v, known: false}
}

// Uint32 returns f's raw on-wire value.
func (f CogAudioFormat) Uint32() uint32 { return f.value }

// Known reports whether f is one of the named values.
func (f CogAudioFormat) Known() bool { return f.known }

// String returns f's name, or "UNKNOWN" for unrecognised values.
func (f CogAudioFormat) String() string {
	if f.known {
		return f.name
	}
	return "UNKNOWN"
}

// BytesPerSample returns the storage width of one sample in one channel
// for a raw PCM format, or 0 for a coded format such as AAC or an
// unrecognised value.
func (f CogAudioFormat) BytesPerSample() int {
	switch f {
	case AudioFormatS16LE, AudioFormatS16BE:
		return 2
	case AudioFormatS24LE:
		return 3
	case AudioFormatS32LE, AudioFormatFloat32LE:
		return 4
	default:
		return 0
	}
}
