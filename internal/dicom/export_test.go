package dicom

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/oeukintake/internal/dataurl"
	"github.com/mrsinham/oeukintake/internal/questionnaire"
	"github.com/mrsinham/oeukintake/internal/record"
)

func testRecord(t *testing.T) *record.Record {
	t.Helper()
	photo := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			photo.Set(x, y, color.RGBA{uint8(x), 90, uint8(y), 255})
		}
	}
	photoURL, err := dataurl.EncodeJPEG(photo, 80)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}

	sig := image.NewRGBA(image.Rect(0, 0, 600, 200))
	for x := 50; x < 550; x++ {
		sig.Set(x, 150, color.RGBA{0, 0, 0, 255})
	}
	sigURL, err := dataurl.EncodePNG(sig)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	return &record.Record{
		ID:        42,
		CreatedAt: time.Date(2026, 5, 4, 13, 45, 10, 0, time.UTC),
		Values: questionnaire.Answers{
			"surname":          "McAllister",
			"first_name":       "Ewan",
			"date_of_birth":    "1985-04-12",
			"photo_base64":     photoURL,
			"signature_base64": sigURL,
		},
		PhysicianComments: "Fit for offshore work",
	}
}

func stringValue(t *testing.T, ds dicom.Dataset, tg tag.Tag) string {
	t.Helper()
	elem, err := ds.FindElementByTag(tg)
	if err != nil {
		t.Fatalf("tag %v missing: %v", tg, err)
	}
	return strings.TrimRight(elem.Value.GetValue().([]string)[0], " \x00")
}

func intValue(t *testing.T, ds dicom.Dataset, tg tag.Tag) int {
	t.Helper()
	elem, err := ds.FindElementByTag(tg)
	if err != nil {
		t.Fatalf("tag %v missing: %v", tg, err)
	}
	return elem.Value.GetValue().([]int)[0]
}

func TestExportRecordWritesBothImages(t *testing.T) {
	dir := t.TempDir()
	files, err := ExportRecord(testRecord(t), dir, Options{InstitutionName: "North Sea Clinic"})
	if err != nil {
		t.Fatalf("ExportRecord failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(files))
	}
	if files[0].Kind != KindPhoto || files[1].Kind != KindSignature {
		t.Errorf("Expected photo then signature, got %s, %s", files[0].Kind, files[1].Kind)
	}
	if want := filepath.Join(dir, "INTAKE42", "PHOTO.dcm"); files[0].Path != want {
		t.Errorf("Expected %s, got %s", want, files[0].Path)
	}

	ds, err := dicom.ParseFile(files[0].Path, nil)
	if err != nil {
		t.Fatalf("Failed to parse DICOM file: %v", err)
	}
	checks := map[tag.Tag]string{
		tag.PatientName:      "MCALLISTER^Ewan",
		tag.PatientBirthDate: "19850412",
		tag.PatientID:        "INTAKE42",
		tag.SOPClassUID:      SecondaryCaptureSOPClassUID,
		tag.StudyDate:        "20260504",
		tag.Modality:         "OT",
		tag.InstitutionName:  "North Sea Clinic",
		tag.SOPInstanceUID:   files[0].SOPInstanceUID,
	}
	for tg, want := range checks {
		if got := stringValue(t, ds, tg); got != want {
			t.Errorf("Tag %v: expected %q, got %q", tg, want, got)
		}
	}
	if rows := intValue(t, ds, tag.Rows); rows != 120 {
		t.Errorf("Expected 120 rows, got %d", rows)
	}
	if cols := intValue(t, ds, tag.Columns); cols != 160 {
		t.Errorf("Expected 160 columns, got %d", cols)
	}

	sig, err := dicom.ParseFile(files[1].Path, nil)
	if err != nil {
		t.Fatalf("Failed to parse signature: %v", err)
	}
	if stringValue(t, ds, tag.StudyInstanceUID) != stringValue(t, sig, tag.StudyInstanceUID) {
		t.Error("Expected both images in one study")
	}
	if stringValue(t, ds, tag.SeriesInstanceUID) == stringValue(t, sig, tag.SeriesInstanceUID) {
		t.Error("Expected a series per image kind")
	}
}

func TestExportIsDeterministic(t *testing.T) {
	rec := testRecord(t)
	a, err := ExportRecord(rec, t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("ExportRecord failed: %v", err)
	}
	b, err := ExportRecord(rec, t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("ExportRecord failed: %v", err)
	}
	if a[0].SOPInstanceUID != b[0].SOPInstanceUID {
		t.Error("Expected identical UIDs across exports")
	}
	if !strings.HasPrefix(a[0].SOPInstanceUID, "2.25.") || len(a[0].SOPInstanceUID) > 64 {
		t.Errorf("Expected a 2.25 UID of at most 64 chars, got %s", a[0].SOPInstanceUID)
	}
}

func TestExportWithoutImages(t *testing.T) {
	rec := &record.Record{ID: 1, Values: questionnaire.Answers{"surname": "Doe", "photo_base64": nil}}
	_, err := ExportRecord(rec, t.TempDir(), Options{})
	if !errors.Is(err, ErrNoImages) {
		t.Errorf("Expected ErrNoImages, got %v", err)
	}
}

func TestExportOnlySignature(t *testing.T) {
	rec := testRecord(t)
	rec.Values = rec.Values.With("photo_base64", nil)
	files, err := ExportRecord(rec, t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("ExportRecord failed: %v", err)
	}
	if len(files) != 1 || files[0].Kind != KindSignature {
		t.Errorf("Expected only the signature, got %+v", files)
	}
}

func TestGrayFrameFlattensAndScales(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2048, 512))
	img.Set(10, 10, color.NRGBA{0, 0, 0, 255})
	nf, w, h := grayFrame(img)
	if w != MaxDimension || h != 256 {
		t.Fatalf("Expected %dx256, got %dx%d", MaxDimension, w, h)
	}
	if v := nf.RawData[h/2*w+w/2]; v != 255 {
		t.Errorf("Expected transparent pixels on white, got %d", v)
	}
}

func TestCaptionIsBurnedIn(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 100))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	nf, w, h := grayFrame(img)
	drawCaption(nf, w, h, "INTAKE #7")

	var white, black int
	for _, v := range nf.RawData {
		switch v {
		case 255:
			white++
		case 0:
			black++
		}
	}
	if white == 0 || black == 0 {
		t.Errorf("Expected white text with black outline, got %d white and %d black pixels", white, black)
	}
}

func TestPersonNameAndDate(t *testing.T) {
	if got := PersonName("o'neil^x", " Mary  Jane "); got != "O'NEIL X^Mary Jane" {
		t.Errorf("Unexpected name %q", got)
	}
	if got := PersonName("Doe", ""); got != "DOE" {
		t.Errorf("Unexpected name %q", got)
	}
	for in, want := range map[string]string{
		"1985-04-12": "19850412",
		"12/04/1985": "19850412",
		"19850412":   "19850412",
		"April 1985": "",
		"":           "",
	} {
		if got := Date(in); got != want {
			t.Errorf("Date(%q): expected %q, got %q", in, want, got)
		}
	}
}
