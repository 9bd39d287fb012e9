package catalog

import (
	"strings"

	"github.com/samber/lo"

	"github.com/saturnines/repsly-export/pkg/transform"
)

// Catalog is an ordered, read-only set of descriptors.
type Catalog struct {
	entries []Descriptor
}

// New builds a catalog from descriptors in the given order.
func New(entries ...Descriptor) *Catalog {
	out := make([]Descriptor, len(entries))
	copy(out, entries)
	return &Catalog{entries: out}
}

// Default returns the catalog of every supported Repsly export endpoint.
func Default() *Catalog {
	return New(defaultEntries...)
}

// All returns the descriptors in catalog order.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, len(c.entries))
	copy(out, c.entries)
	return out
}

// Names returns the endpoint names in catalog order.
func (c *Catalog) Names() []string {
	return lo.Map(c.entries, func(d Descriptor, _ int) string { return d.Name })
}

// Len returns the number of endpoints.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup finds an endpoint by name or display key, ignoring case, dashes and
// underscores, so "client-notes", "ClientNotes" and "clientnotes" all match.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	want := normalize(name)
	return lo.Find(c.entries, func(d Descriptor) bool {
		return normalize(d.Name) == want || normalize(d.Key) == want
	})
}

// Select resolves names in the order given. An empty list selects everything.
// Names that match nothing come back in unknown; duplicates are dropped.
func (c *Catalog) Select(names []string) (selected []Descriptor, unknown []string) {
	if len(names) == 0 {
		return c.All(), nil
	}
	seen := make(map[string]bool)
	for _, n := range names {
		d, ok := c.Lookup(n)
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		selected = append(selected, d)
	}
	return selected, unknown
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// ImportStatus reports the outcome of one import job. It takes a job ID and
// is not part of the default catalog.
var ImportStatus = Descriptor{
	Name:    "importStatus",
	Key:     "ImportStatus",
	Path:    "importStatus",
	Variant: Status,
	Columns: []string{
		"ImportStatus", "RowsInserted", "RowsUpdated", "RowsInvalid", "RowsTotal", "Warnings", "Errors",
	},
	Formatters: map[string]transform.Formatter{
		"Warnings": transform.JoinItems("; ", "ItemID", "ItemName", "ItemStatus"),
		"Errors":   transform.JoinItems("; ", "ItemID", "ItemName", "ItemStatus"),
	},
}

var defaultEntries = []Descriptor{
	{
		Name: "clients", Key: "Clients", Path: "clients", ResultKey: "Clients", Variant: ByTimestamp,
		Columns: []string{
			"ClientID", "TimeStamp", "Code", "Name", "Active", "Tag", "Territory", "RepresentativeCode",
			"RepresentativeName", "StreetAddress", "ZIP", "City", "State", "Country", "Email", "Phone",
			"Mobile", "Website", "ContactName", "ContactTitle", "Note", "Status", "CustomFields",
			"PriceLists", "AccountCode",
		},
	},
	{
		Name: "clientnotes", Key: "ClientNotes", Path: "clientnotes", ResultKey: "ClientNotes", Variant: ByID,
		Columns: []string{
			"ClientNoteID", "TimeStamp", "DateAndTime", "RepresentativeCode", "RepresentativeName",
			"ClientCode", "ClientName", "StreetAddress", "ZIP", "ZIPExt", "City", "State", "Country",
			"Email", "Phone", "Mobile", "Territory", "Longitude", "Latitude", "Note", "VisitID",
		},
	},
	{
		Name: "visits", Key: "Visits", Path: "visits", ResultKey: "Visits", Variant: ByTimestamp,
		Columns: []string{
			"VisitID", "TimeStamp", "Date", "RepresentativeCode", "RepresentativeName", "ExplicitCheckIn",
			"DateAndTimeStart", "DateAndTimeEnd", "ClientCode", "ClientName", "StreetAddress", "ZIP",
			"ZIPExt", "City", "State", "Country", "Territory", "LatitudeStart", "LongitudeStart",
			"LatitudeEnd", "LongitudeEnd", "PrecisionStart", "PrecisionEnd", "VisitStatusBySchedule",
			"VisitEnded",
		},
	},
	{
		Name: "retailaudits", Key: "RetailAudits", Path: "retailaudits", ResultKey: "RetailAudits", Variant: ByID,
		Columns: []string{
			"RetailAuditID", "RetailAuditName", "Cancelled", "ClientCode", "ClientName", "DateAndTime",
			"RepresentativeCode", "RepresentativeName", "ProductGroupCode", "ProductGroupName",
			"ProductCode", "ProductName", "Present", "Price", "Promotion", "ShelfShare",
			"ShelfSharePercent", "SoldOut", "Stock", "CustomFields", "Note", "VisitID",
		},
	},
	{
		Name: "purchaseorders", Key: "PurchaseOrders", Path: "purchaseorders", ResultKey: "PurchaseOrders", Variant: ByID,
		Columns: []string{
			"PurchaseOrderID", "TransactionType", "DocumentTypeID", "DocumentTypeName", "DocumentStatus",
			"DocumentStatusID", "DocumentItemAttributeCaption", "DateAndTime", "DocumentNo", "ClientCode",
			"ClientName", "DocumentDate", "DueDate", "RepresentativeCode", "RepresentativeName", "LineNo",
			"ProductCode", "ProductName", "UnitAmount", "UnitPrice", "PackageTypeCode", "PackageTypeName",
			"PackageTypeConversion", "Quantity", "Amount", "DiscountAmount", "DiscountPercent",
			"TaxAmount", "TaxPercent", "TotalAmount", "ItemNote", "DocumentItemAttributeName",
			"DocumentItemAttributeID", "SignatureURL", "Note", "Taxable", "VisitID", "StreetAddress",
			"ZIP", "ZIPExt", "City", "State", "Country", "CountryCode", "CustomAttributes",
			"OriginalDocumentNumber",
		},
	},
	{
		Name: "documentTypes", Key: "DocumentTypes", Path: "documentTypes", ResultKey: "DocumentTypes", Variant: None,
		Columns: []string{"DocumentTypeID", "DocumentTypeName", "Statuses", "Pricelists"},
	},
	{
		Name: "products", Key: "Products", Path: "products", ResultKey: "Products", Variant: ByID,
		Columns: []string{
			"Code", "Name", "ProductGroupCode", "ProductGroupName", "Active", "Tag", "UnitPrice", "EAN",
			"Note", "ImageUrl", "MasterProduct", "PackagingCodes",
		},
	},
	{
		Name: "pricelists", Key: "Pricelists", Path: "pricelists", ResultKey: "Pricelists", Variant: None,
		Columns: []string{"ID", "Name", "IsDefault", "Active", "UsePrices"},
	},
	{
		Name: "pricelistItems", Key: "PricelistItems", Path: "pricelistsItems", Variant: ByParentFanout,
		Columns: []string{
			"PricelistID", "ID", "ProductID", "ProductCode", "Price", "Active", "ClientID",
			"ManufactureID", "DateAvailableFrom", "DateAvailableTo", "MinQuantity", "MaxQuantity",
		},
		Fanout: &FanoutSpec{
			ParentPath:    "pricelists",
			ParentKey:     "Pricelists",
			ParentIDField: "ID",
			ChildIDColumn: "PricelistID",
		},
	},
	{
		Name: "forms", Key: "Forms", Path: "forms", ResultKey: "Forms", Variant: ByID,
		Columns: []string{
			"FormID", "FormName", "ClientCode", "ClientName", "DateAndTime", "RepresentativeCode",
			"RepresentativeName", "StreetAddress", "ZIP", "ZIPExt", "City", "State", "Country", "Email",
			"Phone", "Mobile", "Territory", "Longitude", "Latitude", "SignatureURL", "VisitStart",
			"VisitEnd", "VisitID", "FormItems",
		},
	},
	{
		Name: "photos", Key: "Photos", Path: "photos", ResultKey: "Photos", Variant: ByID,
		Columns: []string{
			"PhotoID", "ClientCode", "ClientName", "Note", "DateAndTime", "PhotoURL",
			"RepresentativeCode", "RepresentativeName", "VisitID", "Tag",
		},
	},
	{
		Name: "dailyworkingtime", Key: "DailyWorkingTime", Path: "dailyworkingtime", ResultKey: "DailyWorkingTime", Variant: ByID,
		Columns: []string{
			"DailyWorkingTimeID", "Date", "DateAndTimeStart", "DateAndTimeEnd", "Length", "MileageStart",
			"MileageEnd", "MileageTotal", "LatitudeStart", "LongitudeStart", "LatitudeEnd",
			"LongitudeEnd", "RepresentativeCode", "RepresentativeName", "Note", "Tag", "NoOfVisits",
			"MinOfVisits", "MaxOfVisits", "MinMaxVisitsTime", "TimeAtClient", "TimeAtTravel",
		},
	},
	{
		Name: "visitschedules", Key: "VisitSchedules", Path: "visitschedules", ResultKey: "VisitSchedules", Variant: ByDateRange,
		DateField: "ScheduleDateAndTime",
		Columns: []string{
			"ScheduleDateAndTime", "RepresentativeCode", "RepresentativeName", "ClientCode",
			"ClientName", "StreetAddress", "ZIP", "ZIPExt", "City", "State", "Country", "Territory",
			"VisitNote", "DueDate",
		},
	},
	{
		Name: "visitrealizations", Key: "VisitRealizations", Path: "visitrealizations", ResultKey: "VisitRealizations", Variant: BySkip,
		Columns: []string{
			"ScheduleId", "ProjectId", "EmployeeId", "EmployeeCode", "PlaceId", "PlaceCode",
			"ModifiedUTC", "TimeZone", "ScheduleNote", "Status", "DateTimeStart", "DateTimeStartUTC",
			"DateTimeEnd", "DateTimeEndUTC", "PlanDateTimeStart", "PlanDateTimeStartUTC",
			"PlanDateTimeEnd", "PlanDateTimeEndUTC", "Tasks",
		},
	},
	{
		Name: "representatives", Key: "Representatives", Path: "representatives", ResultKey: "Representatives", Variant: None,
		Columns: []string{
			"Code", "Name", "Note", "Email", "Phone", "Territories", "Active", "Address1", "Address2",
			"City", "State", "ZipCode", "ZipCodeExt", "Country", "CountryCode", "Attributes",
		},
	},
	{
		Name: "users", Key: "Users", Path: "users", ResultKey: "Users", Variant: None,
		Columns: []string{
			"ID", "Code", "Name", "Email", "Active", "Role", "Note", "Phone", "Territories",
			"SendEmailEnabled", "Address1", "Address2", "City", "State", "ZipCode", "ZipCodeExt",
			"Country", "CountryCode", "Attributes", "Permissions",
		},
	},
}
