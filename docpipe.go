// Package docpipe defines the data model shared by the document/image
// transformation pipeline: source assets, conversion tasks, watermark and
// placement specifications, and output artifacts.
//
// The packages geometry, convert, compose and pipeline build on these types;
// pipeline.Run is the main entry point for callers.
package docpipe

// MediaKind identifies the broad class of a source or target asset.
type MediaKind int

const (
	KindUnknown   MediaKind = iota
	KindRaster              // single bitmap image
	KindPaginated           // multi-page document (PDF)
)

// String returns the lowercase name of the media kind.
func (k MediaKind) String() string {
	switch k {
	case KindRaster:
		return "raster"
	case KindPaginated:
		return "paginated"
	default:
		return "unknown"
	}
}

// Encoding names a concrete byte encoding of an asset.
type Encoding string

const (
	EncodingPNG  Encoding = "png"
	EncodingJPEG Encoding = "jpeg"
	EncodingGIF  Encoding = "gif"
	EncodingBMP  Encoding = "bmp"
	EncodingTIFF Encoding = "tiff"
	EncodingWebP Encoding = "webp"
	EncodingPDF  Encoding = "pdf"
)

// MediaType returns the MIME type for the encoding.
func (e Encoding) MediaType() string {
	switch e {
	case EncodingPDF:
		return "application/pdf"
	case EncodingJPEG:
		return "image/jpeg"
	case "":
		return "application/octet-stream"
	default:
		return "image/" + string(e)
	}
}

// Ext returns the canonical file extension for the encoding, with dot.
func (e Encoding) Ext() string {
	if e == EncodingJPEG {
		return ".jpg"
	}
	return "." + string(e)
}

// SourceAsset is one caller-supplied input. It is read-only to the pipeline;
// Data must not be mutated after submission.
type SourceAsset struct {
	ID   string
	Kind MediaKind
	Data []byte
	Name string // declared file name, may be empty
}

// ConversionTask requests one output derived from one source.
type ConversionTask struct {
	SourceID       string
	TargetKind     MediaKind
	TargetEncoding Encoding // empty selects a default for the target kind
	Order          int
}

// SelectorMode chooses how a PageSelector picks pages.
type SelectorMode string

const (
	SelectAll    SelectorMode = "all"
	SelectOdd    SelectorMode = "odd"
	SelectEven   SelectorMode = "even"
	SelectCustom SelectorMode = "custom"
)

// PageSelector describes a page subset. Range is only consulted in custom
// mode and uses 1-based pages: "1,3-5,9". The selector is resolved against a
// concrete page count at use time and never cached across documents.
type PageSelector struct {
	Mode  SelectorMode
	Range string
}

// Anchor names a placement position on a page.
type Anchor string

const (
	AnchorCenter       Anchor = "center"
	AnchorTopLeft      Anchor = "top-left"
	AnchorTopCenter    Anchor = "top-center"
	AnchorTopRight     Anchor = "top-right"
	AnchorBottomLeft   Anchor = "bottom-left"
	AnchorBottomCenter Anchor = "bottom-center"
	AnchorBottomRight  Anchor = "bottom-right"
	AnchorTiled        Anchor = "tiled"
)

// RGBColor represents an RGB color value, each channel in [0,255].
type RGBColor struct {
	R, G, B int
}

// StampKind selects what a watermark stamp renders.
type StampKind string

const (
	StampText   StampKind = "text"
	StampQR     StampKind = "qr"
	StampPDF417 StampKind = "pdf417"
)

// WatermarkSpec describes a stamp overlay applied to selected pages.
// Zero values select the defaults noted per field.
type WatermarkSpec struct {
	Kind       StampKind // default: text
	Text       string    // text content, or barcode payload
	FontFamily string    // reserved for callers that load fonts; informational
	FontSize   float64   // points; default 60
	Bold       bool
	Italic     bool
	Color      RGBColor // default light gray
	Opacity    float64  // 0..1; default 0.3
	Angle      float64  // counter-clockwise degrees; default 0
	Anchor     Anchor   // default center
	Pages      PageSelector
	TileRows   int // tiled anchor only; default 4
	TileCols   int // tiled anchor only; default 3
}

// ImageStampSpec places a reusable raster overlay (for example a stored
// signature) on selected pages. Exactly one of AssetKey or Data is set;
// AssetKey is resolved through the injected asset store.
type ImageStampSpec struct {
	AssetKey string
	Data     []byte
	Scale    float64 // multiplier on the overlay's pixel size; default 1
	Anchor   Anchor
	Pages    PageSelector
}

// InsertMode positions inserted content relative to the anchor page.
type InsertMode string

const (
	InsertBefore InsertMode = "before"
	InsertAfter  InsertMode = "after"
)

// InsertSpec describes a page insertion. Anchor is 1-based. When Blank is
// set a blank page matching the first existing page's size is inserted;
// otherwise page FromPage (1-based) of the source named FromSource is copied.
type InsertSpec struct {
	Mode       InsertMode
	Anchor     int
	Blank      bool
	FromSource string
	FromPage   int
}

// Settings carries the per-run options of a pipeline invocation.
type Settings struct {
	Quality        float64 // 0..1 lossy encode quality; default 0.9
	Merge          bool    // merge qualifying raster→paginated tasks
	Watermark      *WatermarkSpec
	ImageStamp     *ImageStampSpec
	Pages          *PageSelector // page subset for paginated→raster extraction
	RotationDeltas map[int]int   // 1-based page → additive degrees
	Insert         *InsertSpec
}

// OutputArtifact is one produced output.
type OutputArtifact struct {
	Name      string
	Data      []byte
	MediaType string
}

// Packaging states how an OutputBundle is delivered.
type Packaging string

const (
	PackagingSingle  Packaging = "single"
	PackagingArchive Packaging = "archive"
)

// OutputBundle is the pipeline's return value: either exactly one artifact
// (PackagingSingle) or a zip archive of several (PackagingArchive).
type OutputBundle struct {
	Artifacts []OutputArtifact
	Packaging Packaging
}

// ItemStatus reports the lifecycle of one input item during a run.
type ItemStatus string

const (
	ItemProcessing ItemStatus = "processing"
	ItemDone       ItemStatus = "done"
)

// ProgressEvent is a normalized progress notification. Percent is within
// [0,100] and never regresses within one run. Item is -1 for run-level
// events.
type ProgressEvent struct {
	Percent int
	Label   string
	Item    int
	Status  ItemStatus
}
