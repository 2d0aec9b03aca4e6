// Package shapes holds example shape descriptors built with plain
// constructor calls, per SPEC_FULL.md's restatement of §9: descriptor
// discovery (reflection, attributes, code-gen) is explicitly out of
// scope for the engine, so the normalised tree is simply constructed
// by hand here. The mortgage-document shape mirrors the ~100-column
// table named in spec.md §1 (illustrative, not privileged).
package shapes

import (
	"github.com/quantatomai/streamgrid/internal/cursor"
	"github.com/quantatomai/streamgrid/internal/descriptor"
)

// MortgageDocumentShapeID identifies the descriptor below in the plan
// cache and in compiler diagnostics.
const MortgageDocumentShapeID descriptor.ShapeID = "mortgage-document-v1"

// MortgageDocument describes one row of the seeded mortgage_document
// table as a JSON object: top-level scalar fields, a nested
// "borrower" object, a flattened "property" sub-shape, and two
// pattern-collapsed arrays (Tag_NN, Comment_NN).
func MortgageDocument() *descriptor.Node {
	return descriptor.Root(
		descriptor.Field("id", "Id", cursor.Int64),
		descriptor.Field("documentType", "DocumentType", cursor.String),
		descriptor.Field("loanNumber", "LoanNumber", cursor.String),
		descriptor.Field("principal", "Principal", cursor.Decimal),
		descriptor.Field("interestRate", "InterestRate", cursor.Float64),
		descriptor.Field("originationDate", "OriginationDate", cursor.Timestamp),
		descriptor.Field("maturityDate", "MaturityDate", cursor.Timestamp),
		descriptor.Field("isEscrowed", "IsEscrowed", cursor.Bool),
		descriptor.Field("externalRef", "ExternalRef", cursor.UUID),

		descriptor.Object("borrower",
			descriptor.Field("name", "BorrowerName", cursor.String),
			descriptor.Field("ssnLastFour", "BorrowerSSNLastFour", cursor.String),
			descriptor.Field("creditScore", "BorrowerCreditScore", cursor.Int32),
		),

		descriptor.Flatten(
			descriptor.Field("propertyAddress", "PropertyAddress", cursor.String),
			descriptor.Field("propertyCity", "PropertyCity", cursor.String),
			descriptor.Field("propertyState", "PropertyState", cursor.Char),
			descriptor.Field("propertyZip", "PropertyZip", cursor.String),
			descriptor.Field("propertyValue", "PropertyValue", cursor.Decimal),
		),

		descriptor.ArrayPattern("tags", "Tag_"),
		descriptor.ArrayPattern("comments", "Comment_"),
	)
}
