// =============================================================================
// Sales & Receivables Analytics - Report Serializer
// =============================================================================
//
// This module renders a ReportPayload into the fixed XML report schema.
//
// XML STRUCTURE:
//
//   <Report generatedAt="..." runId="..." periodStart="..." periodEnd="..." referenceDate="...">
//     <Sales>
//       <Daily date="2024-03-01" total="0.00" count="0"/>
//       <Monthly period="2024-03" total="0.00" count="0"/>
//       <Cumulative total="0.00" count="0"/>
//     </Sales>
//     <Aging>
//       <Bucket label="0-30" total="0.00" count="0" probability="0.90"/>
//       <NotDue total="0.00" count="0"/>
//     </Aging>
//     <TopOverdue>
//       <Customer id="..." total="0.00" overdue="0.00" ratio="0.00"/>
//     </TopOverdue>
//     <Reconciliation>
//       <Anomaly type="over_payment" referenceId="..." amount="0.00" detail="..."/>
//     </Reconciliation>
//     <Rejections>
//       <Rejected row="1" kind="transaction" reason="invalid_date" field="date" detail="..."/>
//     </Rejections>
//   </Report>
//
// SAFETY:
//   Every free-text value (customer ids, categories, details) comes from
//   operator-supplied ERP fields and is not trusted. The writer escapes the
//   five reserved markup characters and strips control characters, so the
//   output is well-formed regardless of input content. This escaping is the
//   module's primary responsibility, not an afterthought.
//
// DETERMINISM:
//   Identical payloads serialize to byte-identical documents: elements are
//   emitted in a fixed order and nothing except the payload's own
//   GeneratedAt field depends on the wall clock. Numeric values are rendered
//   with exactly two decimal places, rounding half to even.
//
// =============================================================================

package xmlreport

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finovatek/ar-analytics/internal/types"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for report generation.
type GenerateOptions struct {
	// Indent is the string used for indentation. Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to emit the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
	}
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate renders the payload into a complete XML document as a single
// in-memory byte buffer. Saving it anywhere is the caller's responsibility.
func Generate(payload *types.ReportPayload) ([]byte, error) {
	return GenerateWithOptions(payload, DefaultGenerateOptions())
}

// GenerateWithOptions renders the payload with custom options.
func GenerateWithOptions(payload *types.ReportPayload, options GenerateOptions) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("nil report payload")
	}

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	}

	root := buildDocument(payload)
	writeElement(&buffer, root, options.Indent, 0)

	return buffer.Bytes(), nil
}

// =============================================================================
// DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Children   []XMLElement
}

// buildDocument constructs the full report element tree in fixed order.
func buildDocument(payload *types.ReportPayload) XMLElement {
	root := XMLElement{
		XMLName: xml.Name{Local: "Report"},
		Attributes: []xml.Attr{
			attr("generatedAt", payload.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z")),
			attr("runId", payload.RunID),
			attr("periodStart", payload.Range.Start.Format("2006-01-02")),
			attr("periodEnd", payload.Range.End.Format("2006-01-02")),
			attr("referenceDate", payload.ReferenceDate.Format("2006-01-02")),
		},
	}

	root.Children = append(root.Children,
		buildSales(payload),
		buildAging(payload),
		buildTopOverdue(payload),
		buildReconciliation(payload),
		buildRejections(payload),
	)

	return root
}

// buildSales emits the daily, monthly, and cumulative aggregates. The payload
// already orders them by period ascending; that order is preserved verbatim.
func buildSales(payload *types.ReportPayload) XMLElement {
	element := XMLElement{XMLName: xml.Name{Local: "Sales"}}

	for _, agg := range payload.Sales {
		switch agg.Granularity {
		case types.GranularityDay:
			element.Children = append(element.Children, XMLElement{
				XMLName: xml.Name{Local: "Daily"},
				Attributes: []xml.Attr{
					attr("date", agg.PeriodKey),
					attr("total", money(agg.TotalAmount)),
					attr("count", fmt.Sprintf("%d", agg.TransactionCount)),
				},
			})
		case types.GranularityMonth:
			element.Children = append(element.Children, XMLElement{
				XMLName: xml.Name{Local: "Monthly"},
				Attributes: []xml.Attr{
					attr("period", agg.PeriodKey),
					attr("total", money(agg.TotalAmount)),
					attr("count", fmt.Sprintf("%d", agg.TransactionCount)),
				},
			})
		case types.GranularityCumulative:
			element.Children = append(element.Children, XMLElement{
				XMLName: xml.Name{Local: "Cumulative"},
				Attributes: []xml.Attr{
					attr("total", money(agg.TotalAmount)),
					attr("count", fmt.Sprintf("%d", agg.TransactionCount)),
				},
			})
		}
	}

	return element
}

// buildAging emits the four buckets in fixed label order plus the not-due
// summary. An empty bucket has no probability attribute at all.
func buildAging(payload *types.ReportPayload) XMLElement {
	element := XMLElement{XMLName: xml.Name{Local: "Aging"}}

	for _, bucket := range payload.Buckets {
		attrs := []xml.Attr{
			attr("label", bucket.Label),
			attr("total", money(bucket.TotalOutstanding)),
			attr("count", fmt.Sprintf("%d", bucket.ReceivableCount)),
		}
		if bucket.WeightedCollectionProbability != nil {
			attrs = append(attrs, attr("probability", money(*bucket.WeightedCollectionProbability)))
		}
		element.Children = append(element.Children, XMLElement{
			XMLName:    xml.Name{Local: "Bucket"},
			Attributes: attrs,
		})
	}

	element.Children = append(element.Children, XMLElement{
		XMLName: xml.Name{Local: "NotDue"},
		Attributes: []xml.Attr{
			attr("total", money(payload.NotDue.TotalOutstanding)),
			attr("count", fmt.Sprintf("%d", payload.NotDue.ReceivableCount)),
		},
	})

	return element
}

// buildTopOverdue emits the worst-overdue-customers table.
func buildTopOverdue(payload *types.ReportPayload) XMLElement {
	element := XMLElement{XMLName: xml.Name{Local: "TopOverdue"}}

	for _, customer := range payload.TopOverdue {
		element.Children = append(element.Children, XMLElement{
			XMLName: xml.Name{Local: "Customer"},
			Attributes: []xml.Attr{
				attr("id", customer.CustomerID),
				attr("total", money(customer.TotalOutstanding)),
				attr("overdue", money(customer.OverdueOutstanding)),
				attr("ratio", money(customer.OverdueRatio)),
			},
		})
	}

	return element
}

// buildReconciliation emits the anomaly list in detection order.
func buildReconciliation(payload *types.ReportPayload) XMLElement {
	element := XMLElement{XMLName: xml.Name{Local: "Reconciliation"}}

	for _, anomaly := range payload.Reconciliation.Anomalies {
		element.Children = append(element.Children, XMLElement{
			XMLName: xml.Name{Local: "Anomaly"},
			Attributes: []xml.Attr{
				attr("type", string(anomaly.Type)),
				attr("referenceId", anomaly.ReceivableID),
				attr("amount", money(anomaly.Amount)),
				attr("detail", anomaly.Detail),
			},
		})
	}

	return element
}

// buildRejections emits the normalizer rejection list.
func buildRejections(payload *types.ReportPayload) XMLElement {
	element := XMLElement{XMLName: xml.Name{Local: "Rejections"}}

	for _, rejected := range payload.Rejected {
		element.Children = append(element.Children, XMLElement{
			XMLName: xml.Name{Local: "Rejected"},
			Attributes: []xml.Attr{
				attr("row", fmt.Sprintf("%d", rejected.RowNumber)),
				attr("kind", string(rejected.Kind)),
				attr("reason", string(rejected.Reason)),
				attr("field", rejected.Field),
				attr("detail", rejected.Detail),
			},
		})
	}

	return element
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// attr creates an XML attribute.
func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// money renders a decimal with exactly two places, rounding half to even.
func money(d decimal.Decimal) string {
	return d.StringFixedBank(2)
}

// writeElement writes an element and its children with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)

	for _, a := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", a.Name.Local, escapeXML(a.Value)))
	}

	if len(element.Children) == 0 {
		// Self-closing tag.
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">\n")

	for _, child := range element.Children {
		writeElement(buffer, child, indent, level+1)
	}

	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}
	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes the five reserved markup characters and strips control
// characters. Upstream values are operator-supplied and not trusted; this is
// what keeps the document well-formed no matter what the ERP exported.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			if r < 0x20 || r == 0x7f {
				// Control characters are stripped outright.
				continue
			}
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
