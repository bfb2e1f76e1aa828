package dicom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// MediaStorageDirectoryUID is the SOP class of a DICOMDIR.
const MediaStorageDirectoryUID = "1.2.840.10008.1.3.10"

// FileSetID names the media written by this package.
const FileSetID = "OEUKINTAKE"

const recordInUse = 0xFFFF

type dirImage struct {
	fileID      []string
	sopClass    string
	sopInstance string
}

type dirSeries struct {
	uid, number, modality string
	images                []dirImage
}

type dirStudy struct {
	uid, id, date, time, description string
	series                           []*dirSeries
}

type dirPatient struct {
	id, name string
	studies  []*dirStudy
}

// WriteDICOMDIR indexes every exported instance under dir (INTAKE*/*.dcm)
// in dir/DICOMDIR and returns its path. Running it again after more
// exports rebuilds the index from scratch.
func WriteDICOMDIR(dir string) (string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "INTAKE*", "*.dcm"))
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("no exported instances in %s", dir)
	}
	sort.Strings(paths)

	patients, err := collect(dir, paths)
	if err != nil {
		return "", err
	}

	var items [][]*dicom.Element
	var depths []int
	for _, p := range patients {
		items = append(items, directoryRecord("PATIENT",
			mustNewElement(tag.PatientID, []string{p.id}),
			mustNewElement(tag.PatientName, []string{p.name}),
		))
		depths = append(depths, 0)
		for _, st := range p.studies {
			items = append(items, directoryRecord("STUDY",
				mustNewElement(tag.StudyInstanceUID, []string{st.uid}),
				mustNewElement(tag.StudyID, []string{st.id}),
				mustNewElement(tag.StudyDate, []string{st.date}),
				mustNewElement(tag.StudyTime, []string{st.time}),
				mustNewElement(tag.StudyDescription, []string{st.description}),
			))
			depths = append(depths, 1)
			for _, se := range st.series {
				items = append(items, directoryRecord("SERIES",
					mustNewElement(tag.Modality, []string{se.modality}),
					mustNewElement(tag.SeriesInstanceUID, []string{se.uid}),
					mustNewElement(tag.SeriesNumber, []string{se.number}),
				))
				depths = append(depths, 2)
				for _, im := range se.images {
					items = append(items, directoryRecord("IMAGE",
						mustNewElement(tag.ReferencedFileID, im.fileID),
						mustNewElement(tag.ReferencedSOPClassUIDInFile, []string{im.sopClass}),
						mustNewElement(tag.ReferencedSOPInstanceUIDInFile, []string{im.sopInstance}),
						mustNewElement(tag.ReferencedTransferSyntaxUIDInFile, []string{ExplicitVRLittleEndian}),
					))
					depths = append(depths, 3)
				}
			}
		}
	}

	seq, err := dicom.NewElement(tag.DirectoryRecordSequence, items)
	if err != nil {
		return "", fmt.Errorf("directory record sequence: %w", err)
	}
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}),
		mustNewElement(tag.MediaStorageSOPClassUID, []string{MediaStorageDirectoryUID}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{UID("dicomdir", strings.Join(paths, "|"))}),
		mustNewElement(tag.FileSetID, []string{FileSetID}),
		mustNewElement(tag.OffsetOfTheFirstDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.OffsetOfTheLastDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.FileSetConsistencyFlag, []int{0}),
		seq,
	}}

	var buf bytes.Buffer
	if err := dicom.Write(&buf, ds); err != nil {
		return "", fmt.Errorf("encode DICOMDIR: %w", err)
	}
	data := buf.Bytes()
	if err := patchOffsets(data, depths); err != nil {
		return "", err
	}

	path := filepath.Join(dir, "DICOMDIR")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write DICOMDIR: %w", err)
	}
	return path, nil
}

func directoryRecord(kind string, attrs ...*dicom.Element) []*dicom.Element {
	return append([]*dicom.Element{
		mustNewElement(tag.OffsetOfTheNextDirectoryRecord, []int{0}),
		mustNewElement(tag.RecordInUseFlag, []int{recordInUse}),
		mustNewElement(tag.OffsetOfReferencedLowerLevelDirectoryEntity, []int{0}),
		mustNewElement(tag.DirectoryRecordType, []string{kind}),
	}, attrs...)
}

// collect reads the header of every instance and groups them by patient,
// study and series, in path order.
func collect(dir string, paths []string) ([]*dirPatient, error) {
	var patients []*dirPatient
	byPatient := map[string]*dirPatient{}
	byStudy := map[string]*dirStudy{}
	bySeries := map[string]*dirSeries{}

	for _, path := range paths {
		ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil, err
		}

		pid := firstString(ds, tag.PatientID)
		p, ok := byPatient[pid]
		if !ok {
			p = &dirPatient{id: pid, name: firstString(ds, tag.PatientName)}
			byPatient[pid] = p
			patients = append(patients, p)
		}
		stUID := firstString(ds, tag.StudyInstanceUID)
		st, ok := byStudy[stUID]
		if !ok {
			st = &dirStudy{
				uid:         stUID,
				id:          firstString(ds, tag.StudyID),
				date:        firstString(ds, tag.StudyDate),
				time:        firstString(ds, tag.StudyTime),
				description: firstString(ds, tag.StudyDescription),
			}
			byStudy[stUID] = st
			p.studies = append(p.studies, st)
		}
		seUID := firstString(ds, tag.SeriesInstanceUID)
		se, ok := bySeries[seUID]
		if !ok {
			se = &dirSeries{
				uid:      seUID,
				number:   firstString(ds, tag.SeriesNumber),
				modality: firstString(ds, tag.Modality),
			}
			bySeries[seUID] = se
			st.series = append(st.series, se)
		}
		se.images = append(se.images, dirImage{
			fileID:      strings.Split(filepath.ToSlash(rel), "/"),
			sopClass:    firstString(ds, tag.SOPClassUID),
			sopInstance: firstString(ds, tag.SOPInstanceUID),
		})
	}
	return patients, nil
}

func firstString(ds dicom.Dataset, t tag.Tag) string {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	if vals, ok := elem.Value.GetValue().([]string); ok && len(vals) > 0 {
		return strings.TrimRight(vals[0], " \x00")
	}
	return ""
}

var itemTag = []byte{0xFE, 0xFF, 0x00, 0xE0}

// patchOffsets fills the byte offsets the encoder left at zero. depths[i]
// is the level of the i-th directory record in depth-first order, 0 for
// PATIENT through 3 for IMAGE. Records hold no nested sequences, so every
// item tag after the meta header starts a record.
func patchOffsets(data []byte, depths []int) error {
	const preamble = 132
	var starts []int
	for i := preamble; i+4 <= len(data); i++ {
		if bytes.Equal(data[i:i+4], itemTag) {
			starts = append(starts, i)
		}
	}
	if len(starts) != len(depths) {
		return fmt.Errorf("DICOMDIR has %d items, expected %d records", len(starts), len(depths))
	}

	next := make([]int, len(depths))
	child := make([]int, len(depths))
	var roots []int
	for i, d := range depths {
		if d == 0 {
			roots = append(roots, i)
		}
		if i+1 < len(depths) && depths[i+1] == d+1 {
			child[i] = starts[i+1]
		}
		for j := i + 1; j < len(depths); j++ {
			if depths[j] < d {
				break
			}
			if depths[j] == d {
				next[i] = starts[j]
				break
			}
		}
	}

	put := func(from, to int, group, element uint16, v int) error {
		pos := findTag(data, from, to, group, element)
		if pos < 0 {
			return fmt.Errorf("DICOMDIR: tag (%04X,%04X) not found", group, element)
		}
		// Explicit VR UL: tag, VR, 2-byte length, then the value.
		binary.LittleEndian.PutUint32(data[pos+8:pos+12], uint32(v))
		return nil
	}

	if err := put(preamble, starts[0], 0x0004, 0x1200, starts[roots[0]]); err != nil {
		return err
	}
	if err := put(preamble, starts[0], 0x0004, 0x1202, starts[roots[len(roots)-1]]); err != nil {
		return err
	}
	for i, start := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if err := put(start, end, 0x0004, 0x1400, next[i]); err != nil {
			return err
		}
		if err := put(start, end, 0x0004, 0x1420, child[i]); err != nil {
			return err
		}
	}
	return nil
}

func findTag(data []byte, from, to int, group, element uint16) int {
	var want [4]byte
	binary.LittleEndian.PutUint16(want[0:2], group)
	binary.LittleEndian.PutUint16(want[2:4], element)
	for i := from; i+12 <= to && i+12 <= len(data); i++ {
		if bytes.Equal(data[i:i+4], want[:]) {
			return i
		}
	}
	return -1
}
