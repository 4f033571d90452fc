package s

type ScanSource string

const (
	FastScan ScanSource = "fastScan"
	DeepScan ScanSource = "deepScan"
)

func (ss ScanSource) Valid() bool {
	switch ss {
	case FastScan, DeepScan:
		return true
	}
	return false
}

type FileType string

const (
	FileTypeDocument FileType = "document"
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeAudio    FileType = "audio"
	FileTypeArchive  FileType = "archive"
	FileTypeOther    FileType = "other"
)

type SignatureMatch struct {
	Format     string  `json:"format"`
	Confidence float64 `json:"confidence"`
}

type RecoverableFile struct {
	ID            string   `json:"id"`
	FileName      string   `json:"fileName"`
	FileExtension string   `json:"fileExtension"`
	FileType      FileType `json:"fileType"`

	// Only meaningful when Source is deepScan
	SizeInBytes  int64 `json:"sizeInBytes"`
	OffsetOnDisk int64 `json:"offsetOnDisk"`

	SignatureMatch *SignatureMatch `json:"signatureMatch,omitempty"`
	Source         ScanSource      `json:"source"`
}
