// Package dicom files a questionnaire's identity photo and signature as
// DICOM Secondary Capture images so they can be stored next to the
// examination in a PACS.
package dicom

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/oeukintake/internal/dataurl"
	"github.com/mrsinham/oeukintake/internal/record"
)

// DICOM constants.
const (
	SecondaryCaptureSOPClassUID = "1.2.840.10008.5.1.4.1.1.7"
	ExplicitVRLittleEndian      = "1.2.840.10008.1.2.1"
)

// ErrNoImages is returned when a record has neither photo nor signature.
var ErrNoImages = errors.New("record has no photo or signature")

// Kind names an exported image.
type Kind string

const (
	KindPhoto     Kind = "PHOTO"
	KindSignature Kind = "SIGNATURE"
)

// ExportedFile is one written instance.
type ExportedFile struct {
	Kind           Kind
	Path           string
	SOPInstanceUID string
	Rows, Columns  int
}

// Options tunes the dataset header.
type Options struct {
	InstitutionName string
	// Now stamps files when the record has no creation time. Defaults to time.Now.
	Now func() time.Time
}

// ExportRecord writes one instance per image field of rec under
// dir/INTAKE<id>. Instances share one study; each kind gets its own series.
// UIDs depend only on the record id, so re-exporting overwrites in place.
func ExportRecord(rec *record.Record, dir string, opts Options) ([]ExportedFile, error) {
	if rec == nil {
		return nil, errors.New("nil record")
	}
	sources := []struct {
		kind        Kind
		field       string
		description string
		series      int
	}{
		{KindPhoto, "photo_base64", "Identity photo", 1},
		{KindSignature, "signature_base64", "Declaration signature", 2},
	}

	outDir := filepath.Join(dir, fmt.Sprintf("INTAKE%d", rec.ID))
	var files []ExportedFile
	for _, src := range sources {
		enc := rec.String(src.field)
		if enc == "" {
			continue
		}
		img, err := dataurl.DecodeImage(enc)
		if err != nil {
			return files, fmt.Errorf("decode %s: %w", strings.ToLower(string(src.kind)), err)
		}
		if len(files) == 0 {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return nil, fmt.Errorf("create output directory: %w", err)
			}
		}

		nf, w, h := grayFrame(img)
		drawCaption(nf, w, h, fmt.Sprintf("INTAKE #%d", rec.ID))

		hd := header{
			rec:         rec,
			opts:        opts,
			kind:        src.kind,
			description: src.description,
			series:      src.series,
		}
		ds := hd.dataset(nf, w, h)
		path := filepath.Join(outDir, string(src.kind)+".dcm")
		if err := writeDataset(path, ds); err != nil {
			return files, fmt.Errorf("write %s: %w", path, err)
		}
		files = append(files, ExportedFile{
			Kind:           src.kind,
			Path:           path,
			SOPInstanceUID: hd.instanceUID(),
			Rows:           h,
			Columns:        w,
		})
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}
	return files, nil
}

type header struct {
	rec         *record.Record
	opts        Options
	kind        Kind
	description string
	series      int
}

func (h header) id() string {
	return strconv.FormatInt(h.rec.ID, 10)
}

func (h header) studyUID() string    { return UID("study", h.id()) }
func (h header) seriesUID() string   { return UID("series", h.id(), string(h.kind)) }
func (h header) instanceUID() string { return UID("instance", h.id(), string(h.kind)) }

func (h header) dataset(nf *frame.NativeFrame[uint8], cols, rows int) dicom.Dataset {
	created := h.rec.CreatedAt
	if created.IsZero() {
		now := time.Now
		if h.opts.Now != nil {
			now = h.opts.Now
		}
		created = now()
	}
	institution := h.opts.InstitutionName
	if institution == "" {
		institution = "OEUK Intake"
	}

	elements := []*dicom.Element{
		mustNewElement(tag.MediaStorageSOPClassUID, []string{SecondaryCaptureSOPClassUID}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{h.instanceUID()}),
		mustNewElement(tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}),
		mustNewElement(tag.SOPClassUID, []string{SecondaryCaptureSOPClassUID}),
		mustNewElement(tag.SOPInstanceUID, []string{h.instanceUID()}),
		mustNewElement(tag.StudyDate, []string{created.Format("20060102")}),
		mustNewElement(tag.StudyTime, []string{created.Format("150405")}),
		mustNewElement(tag.AccessionNumber, []string{"INTAKE" + h.id()}),
		mustNewElement(tag.Modality, []string{"OT"}),
		mustNewElement(tag.ConversionType, []string{"WSD"}),
		mustNewElement(tag.InstitutionName, []string{institution}),
		mustNewElement(tag.StudyDescription, []string{"OEUK medical questionnaire"}),
		mustNewElement(tag.SeriesDescription, []string{h.description}),
		mustNewElement(tag.PatientName, []string{PersonName(h.rec.String("surname"), h.rec.String("first_name"))}),
		mustNewElement(tag.PatientID, []string{PatientID(h.rec)}),
		mustNewElement(tag.PatientBirthDate, []string{Date(h.rec.String("date_of_birth"))}),
		mustNewElement(tag.StudyInstanceUID, []string{h.studyUID()}),
		mustNewElement(tag.SeriesInstanceUID, []string{h.seriesUID()}),
		mustNewElement(tag.StudyID, []string{h.id()}),
		mustNewElement(tag.SeriesNumber, []string{strconv.Itoa(h.series)}),
		mustNewElement(tag.InstanceNumber, []string{"1"}),
		mustNewElement(tag.SamplesPerPixel, []int{1}),
		mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
		mustNewElement(tag.Rows, []int{rows}),
		mustNewElement(tag.Columns, []int{cols}),
		mustNewElement(tag.BitsAllocated, []int{8}),
		mustNewElement(tag.BitsStored, []int{8}),
		mustNewElement(tag.HighBit, []int{7}),
		mustNewElement(tag.PixelRepresentation, []int{0}),
	}
	if h.rec.PhysicianComments != "" {
		elements = append(elements, mustNewElement(tag.ImageComments, []string{truncate(h.rec.PhysicianComments, 10240)}))
	}
	elements = append(elements, mustNewElement(tag.PixelData, dicom.PixelDataInfo{
		Frames: []*frame.Frame{
			{
				Encapsulated: false,
				NativeData:   nf,
			},
		},
	}))
	return dicom.Dataset{Elements: elements}
}

func writeDataset(path string, ds dicom.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dicom.Write(f, ds); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

// PersonName renders a PN value, "SURNAME^First". Component separators in
// the input are replaced with spaces.
func PersonName(surname, first string) string {
	clean := func(s string) string {
		s = strings.NewReplacer("^", " ", "=", " ", "\\", " ").Replace(s)
		return strings.Join(strings.Fields(s), " ")
	}
	surname, first = strings.ToUpper(clean(surname)), clean(first)
	if first == "" {
		return surname
	}
	return surname + "^" + first
}

// PatientID is stable per record: the ID number when given, otherwise the
// intake id.
func PatientID(rec *record.Record) string {
	if n := strings.TrimSpace(rec.String("id_number")); n != "" {
		return truncate(strings.ToUpper(n), 64)
	}
	return "INTAKE" + strconv.FormatInt(rec.ID, 10)
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "20060102", "2006/01/02", "02-01-2006"}

// Date converts a questionnaire date into a DA value (YYYYMMDD). Unparsable
// input gives "".
func Date(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("20060102")
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
