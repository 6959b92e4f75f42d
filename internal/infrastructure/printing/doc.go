// Package printing renders the PDF documents of the service: company
// invoices and the customer sheets packed into delivery boxes.
//
// Documents are html/template pages from the embedded templates directory,
// converted to PDF by headless Chrome through chromedp:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true})
//	if err != nil {
//	    return err
//	}
//	defer renderer.Close()
//
//	printer := NewDocumentPrinter(NewTemplateEngine(), renderer, logger)
//	pdf, err := printer.InvoicePDF(ctx, doc)
package printing
