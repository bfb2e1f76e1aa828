package dicom

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// uidNamespace scopes every UID this exporter derives.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("oeukintake.dicom"))

// UID derives a stable DICOM UID from parts, using the 2.25 root defined
// for UUID-based UIDs. The same parts always give the same UID.
func UID(parts ...string) string {
	u := uuid.NewSHA1(uidNamespace, []byte(strings.Join(parts, "/")))
	n := new(big.Int).SetBytes(u[:])
	return "2.25." + n.String()
}
