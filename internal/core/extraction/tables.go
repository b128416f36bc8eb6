package extraction

import "regexp"

const (
	amountToken = `(\d{1,3}(?:[.,]\d{3})+[.,]\d{2}|\d+[.,]\d{2})`
	rateToken   = `\b(\d{1,2}(?:[.,]\d{1,2})?)`
	numberToken = `([A-Z0-9][A-Z0-9\-./_]{2,})`
	numericDate = `\b(\d{1,2}[./-]\d{1,2}[./-](?:\d{4}|\d{2}))\b`
	isoDateExpr = `\b(\d{4}-\d{1,2}-\d{1,2})\b`
	namedDate   = `(\d{1,2}\.?[ \t]+\p{L}+\.?[ \t]+\d{4})`
	dateLabel   = `\b(?:(Service|Delivery|Due|Order|Payment|Leistungs|Liefer|Bestell)[ \t-]+)?(?:Rechnungsdatum|Belegdatum|Invoice date|Datum|Date)\b[^\n]*?`
	monthNames  = `(?:Januar|Jänner|Februar|März|Maerz|April|Mai|Juni|Juli|August|September|Oktober|November|Dezember|January|February|March|May|June|July|October|December)`
	companyName = `[A-ZÄÖÜ][a-zA-ZÄÖÜäöüß&. \t]{5,40}`
	legalForm   = `(?:GmbH|AG|UG|OHG|KG|e\.V\.|Inc\.|Ltd\.|Corp\.)`
	productText = `[A-Za-zÄÖÜäöüß][A-Za-zÄÖÜäöüß \t\-.]`
)

var vendorRules = []Rule{
	newRule("vendor.amazon_eu", `(Amazon\s+EU\s+S\.[aà]\.r\.L?\.?)`),
	newRule("vendor.legal_form", `(`+companyName+legalForm+`)`),
	newRule("vendor.legal_form_line", `^(`+companyName+legalForm+`)\s*$`),
	newRule("vendor.capitalized_line", `^(`+companyName+`)\s*$`),
}

var (
	vendorRejectTop    = regexp.MustCompile(`(?i)(Versandkosten|Porto|Lieferung|\d{5}|Straße|str\.|Platz|Weg|Höhe|Gasse|Alle|Kunde|Leuchter)`)
	vendorRejectBottom = regexp.MustCompile(`(?i)(\d{5}|Straße|str\.|Platz|Weg|Höhe|Gasse|Deutschland|Deutsche Bank|Amtsgericht)`)
	vendorNoise        = regexp.MustCompile(`(?i)(rechnung|invoice|seite|datum|betrag|summe|gesamt|vielen dank|danke|iban|bic|telefon|e-mail|www\.|ust-?id|steuernummer)`)
)

var invoiceNumberRules = []Rule{
	newRule("number.rechnungsnummer", `(?i)Rechnungs(?:nummer|-?nr\.?)[ \t]*[:#]?[ \t]*`+numberToken),
	newRule("number.invoice_no", `(?i)(?:Invoice|Bill)[ \t]*(?:number|no\.?|nr\.?|#)[ \t]*[:#]?[ \t]*`+numberToken),
	newRule("number.rechnung_nr", `(?i)Rechnung[ \t]+(?:Nr\.?|Nummer)[ \t]*[:#]?[ \t]*`+numberToken),
	newRule("number.labelled_nr", `(?i)(?:Rechnung|Invoice|Bill)[^\n]*?\bNr\.?[ \t]*:?[ \t]*`+numberToken),
	newRule("number.long_digits", `\b(\d{6,})\b`),
}

var numberLabelWords = regexp.MustCompile(`(?i)^(datum|date|vom|from|nummer|number)$`)

var invoiceDateRules = []Rule{
	newRule("date.rechnungs_lieferdatum", `(?i)Rechnungsdatum[/ \t\n]*Lieferdatum[: \t]*(\d{1,2}\.?[ \t]+\p{L}+[ \t]+\d{4})`),
	newRule("date.labelled_numeric", `(?i)`+dateLabel+numericDate).withGroup(2).skipWhen(1),
	newRule("date.labelled_iso", `(?i)`+dateLabel+isoDateExpr).withGroup(2).skipWhen(1),
	newRule("date.labelled_named", `(?i)`+dateLabel+namedDate).withGroup(2).skipWhen(1),
	newRule("date.named", `(?i)(\d{1,2}\.?[ \t]+`+monthNames+`[ \t]+\d{4})`),
	newRule("date.numeric", `\b(\d{1,2}[./-]\d{1,2}[./-]\d{4})\b`),
	newRule("date.iso", `\b(\d{4}[./-]\d{1,2}[./-]\d{1,2})\b`),
}

var serviceDateRules = []Rule{
	newRule("service.bestelldatum_named", `(?i)Bestelldatum[: \t]*`+namedDate),
	newRule("service.bestelldatum", `(?i)Bestelldatum[: \t]*`+numericDate),
	newRule("service.leistungsdatum", `(?i)(?:Leistungsdatum|Leistung vom|Lieferdatum|Liefertermin|Service date|Delivery date)[: \t]*`+numericDate),
	newRule("service.leistungsdatum_iso", `(?i)(?:Leistungsdatum|Leistung vom|Lieferdatum|Service date|Delivery date)[: \t]*`+isoDateExpr),
	newRule("service.leistungsdatum_named", `(?i)(?:Leistungsdatum|Lieferdatum|Service date|Delivery date)[: \t]*`+namedDate),
	newRule("service.bestellung_vom", `(?i)Ihre Bestellung vom[: \t]*`+numericDate),
	newRule("service.zeitraum", `(?i)(?:Leistungszeitraum|Service period|Lieferung)[^\n]*?`+numericDate),
}

var sameDateStatements = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:rechnungs|leistungs)datum\s+(?:entspricht|gleich|=)\s+(?:dem\s+)?(?:leistungs|rechnungs)datum`),
	regexp.MustCompile(`(?i)(?:invoice|service)\s+date\s+(?:equals|corresponds\s+to|is|=)\s+(?:the\s+)?(?:service|invoice)\s+date`),
}

var totalRules = []Rule{
	newRule("total.keyword", `(?im)(?:Gesamt|Total|Summe|Endbetrag|Rechnungsbetrag)[^\n]*?`+amountToken),
	newRule("total.payable", `(?im)(?:Zu zahlen|Zahlbetrag)[^\n]*?`+amountToken),
	newRule("total.euro_suffix", `(?im)`+amountToken+`[ \t]*(?:€|EUR)[ \t]*$`),
	newRule("total.euro_prefix", `(?im)(?:€|EUR)[ \t]*`+amountToken+`[ \t]*$`),
}

// A net label may stand alone with its amount at the start of the next line.
const nextLineAmount = `[^\n]*?(?:\n[ \t]*)?` + amountToken

var netRules = []Rule{
	newRule("net.subtotal_excl_vat", `(?is)Zwischensumme[:\s]*\(ohne[^)]+\)[:\s]*(?:USt\.[^€]+)?`+amountToken+`\s*€`),
	newRule("net.keyword", `(?im)\b(?:Netto\w*|Net(?:\s+amount)?)\b`+nextLineAmount),
	newRule("net.subtotal", `(?im)(?:Summe netto|Zwischensumme)`+nextLineAmount),
	newRule("net.suffix", `(?im)`+amountToken+`[ \t]*(?:€|EUR)?[ \t]*(?:netto|net)\b`),
}

var taxRateRules = []Rule{
	newRule("tax.rate_before_label", `(?i)`+rateToken+`[ \t]*%[ \t]*(?:MwSt|USt|VAT|Steuer)`),
	newRule("tax.label_before_rate", `(?i)(?:MwSt|USt|VAT)[^\n]*?`+rateToken+`[ \t]*%`),
	newRule("tax.rate_then_label", `(?i)`+rateToken+`[ \t]*%[^\n]*?(?:MwSt|USt|Steuer)`),
	newRule("tax.steuersatz", `(?i)Steuersatz[: \t]*`+rateToken+`[ \t]*%`),
	newRule("tax.trailing_percent", `(?im)`+rateToken+`[ \t]*%[ \t]*$`),
}

// Description rules that do not depend on the vocabulary, most literal first.
var descriptionTableRules = []Rule{
	newRule("description.sold_by", `(?i)Verkauft von[^\n]+\n[ \t]*([^\n]{20,80}?)[ \t]+\d`),
	newRule("description.pipe_row", `(?im)([A-ZÄÖÜ][A-Za-zÄÖÜäöüß \t|%+]{10,100})[ \t]*\|$`),
	newRule("description.pipe_artnr", `(?i)([A-ZÄÖÜ][A-Za-zÄÖÜäöüß \t%+]{10,100})[ \t]*\|[^\n]*?ArtNr`),
	newRule("description.pipe_lead", `(?im)^[ \t]*([A-ZÄÖÜ][A-Za-zÄÖÜäöüß \t%+]{15,100})[ \t]*\|`),
}

var descriptionGenericRules = []Rule{
	newRule("description.article_number", `(?im)(\d{6,})[ \t]+(`+productText+`{10,80}?)[ \t]+\d+`).withGroup(2),
	newRule("description.article_unit", `(?im)(\d{4,})[ \t]+(`+productText+`{8,60}?)[ \t]+(?:St\.|Stk\.|kg|g|l)\b`).withGroup(2),
	newRule("description.header_follow", `(?i)(?:Bezeichnung|Artikel)[^\n]*\n[ \t]*(`+productText+`{8,80})`),
	newRule("description.priced_line", `(?im)^[ \t]*([A-ZÄÖÜ][A-Za-zÄÖÜäöüß \t\-.]{12,60}?)[ \t]+\d+[.,]\d{2}`),
}

var (
	descriptionDelims  = regexp.MustCompile(`[|•·*]+`)
	descriptionSpaces  = regexp.MustCompile(`\s+`)
	descriptionTrailer = regexp.MustCompile(`(?:\s+\d+(?:[.,]\d*)?)+$`)
)
