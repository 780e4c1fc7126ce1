package lineage_test

import (
	"testing"

	"lineagecore/testutil"
)

func TestImportBoundaries(t *testing.T) {
	testutil.AssertImports(t, ".", testutil.NoInternal, testutil.NoStorage)
}
