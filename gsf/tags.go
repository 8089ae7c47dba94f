package gsf

// Block tags used by the GSF grammar. Tags are always exactly 4 ASCII
// octets; "tag " (note the trailing space) is the on-wire spelling of the
// generic key/val tag block.
var (
	tagHead = mk("head")
	tagSegm = mk("segm")
	tagTag  = mk("tag ")
	tagGrai = mk("grai")
	tagGbhd = mk("gbhd")
	tagGrdt = mk("grdt")
	tagTils = mk("tils")
	tagVghd = mk("vghd")
	tagCghd = mk("cghd")
	tagAghd = mk("aghd")
	tagCahd = mk("cahd")
	tagEghd = mk("eghd")
	tagComp = mk("comp")
	tagUnof = mk("unof")
	tagFill = mk("fill")
)

func mk(s string) [4]byte {
	var t [4]byte
	copy(t[:], s)
	return t
}
