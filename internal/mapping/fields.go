// Package mapping turns raw manifest columns into canonical item fields.
package mapping

// FieldSpec describes one canonical target field that a manifest column
// can map to.
type FieldSpec struct {
	Value       string
	Label       string
	Group       string
	DataType    string
	Description string
	Patterns    []string
	Required    bool
}

// FieldGroup orders related fields for display.
type FieldGroup struct {
	Key         string
	Label       string
	Description string
	Order       int
}

// FieldNotMapped is the sentinel target for columns that should be
// ignored during application.
const FieldNotMapped = "not_mapped"

// Fields is the canonical field catalog, in suggestion priority order.
var Fields = []FieldSpec{
	{
		Value:       FieldNotMapped,
		Label:       "Not Mapped",
		Group:       "general",
		DataType:    "any",
		Description: "Column is ignored during mapping",
		Patterns:    []string{"ignore", "skip", "none", "notmapped", "not_mapped"},
	},
	{
		Value:       "barcode",
		Label:       "Barcode / Asset ID",
		Group:       "identification",
		DataType:    "string",
		Description: "Unique identifier or barcode for the asset",
		Patterns: []string{"barcode", "barcodeid", "barcode_id", "bcode", "upc", "sku",
			"scan", "product id", "productid", "asset_id", "assetid", "asset number", "assetnumber"},
	},
	{
		Value:       "serial",
		Label:       "Serial Number",
		Group:       "identification",
		DataType:    "string",
		Description: "Serial number of the device",
		Required:    true,
		Patterns: []string{"serial", "serialnumber", "serial_number", "serialnum", "sn",
			"serial number", "serialno", "serial no", "service tag", "servicetag"},
	},
	{
		Value:       "manufacturer",
		Label:       "Manufacturer",
		Group:       "basic_info",
		DataType:    "string",
		Description: "Manufacturer or brand of the device",
		Required:    true,
		Patterns:    []string{"manufacturer", "brand", "make", "oem", "vendor", "mfg", "mfr", "company"},
	},
	{
		Value:       "model",
		Label:       "Model",
		Group:       "basic_info",
		DataType:    "string",
		Description: "Model name or number of the device",
		Required:    true,
		Patterns: []string{"model", "modelname", "model_name", "model_number", "modelnumber",
			"model number", "modelno", "model no", "product model"},
	},
	{
		Value:       "processor",
		Label:       "Processor Type",
		Group:       "specifications",
		DataType:    "string",
		Description: "CPU or processor model of the device",
		Patterns: []string{"processor", "cpu", "proc", "chipset", "chip", "processeur",
			"central processing unit", "processor type", "processor model"},
	},
	{
		Value:       "cpu",
		Label:       "CPU Speed",
		Group:       "specifications",
		DataType:    "string",
		Description: "CPU speed in GHz",
		Patterns: []string{"cpu speed", "cpu frequency", "ghz", "processor speed",
			"clock speed", "cpu_speed", "cpuspeed", "freq"},
	},
	{
		Value:       "memory",
		Label:       "Memory (RAM)",
		Group:       "specifications",
		DataType:    "string",
		Description: "RAM size, e.g. 8GB",
		Patterns: []string{"memory", "ram", "mem", "memory_size", "memorysize", "memory size",
			"memory_capacity", "ram size", "ramsize", "ram capacity", "memory amount"},
	},
	{
		Value:       "storage",
		Label:       "Storage (HDD/SSD)",
		Group:       "specifications",
		DataType:    "string",
		Description: "Storage capacity and type",
		Patterns: []string{"storage", "hdd", "ssd", "disk", "drive", "harddrive",
			"storagecapacity", "storage capacity", "storage_capacity", "disk size", "disksize",
			"ssd capacity", "hdd capacity"},
	},
	{
		Value:       "battery",
		Label:       "Battery Status",
		Group:       "condition",
		DataType:    "string",
		Description: "Battery health condition",
		Patterns: []string{"battery", "battery health", "battery status", "bat",
			"battery condition", "battery_status", "bat health"},
	},
	{
		Value:       "condition_grade",
		Label:       "Condition Grade",
		Group:       "condition",
		DataType:    "string",
		Description: "Overall condition grade, e.g. A, B, C",
		Patterns: []string{"condition", "grade", "quality", "conditiongrade", "condition_grade",
			"cond", "rating", "state", "condition rating"},
	},
	{
		Value:       "condition_notes",
		Label:       "Condition Notes",
		Group:       "condition",
		DataType:    "string",
		Description: "Detailed notes about device condition",
		Patterns: []string{"notes", "description", "comment", "comments", "memo", "details",
			"remark", "remarks", "desc", "condition notes", "conditionnotes", "condition_notes",
			"condition description"},
	},
	{
		Value:       "unit_price",
		Label:       "Price",
		Group:       "pricing",
		DataType:    "decimal",
		Description: "Unit price of the item",
		Patterns: []string{"price", "cost", "value", "unitprice", "unit_price", "msrp",
			"retail", "retail_price", "selling price", "sellingprice", "sale price", "saleprice",
			"unit cost"},
	},
}

// Groups orders the field groups for display.
var Groups = []FieldGroup{
	{Key: "identification", Label: "Identification", Description: "Fields used to uniquely identify assets", Order: 1},
	{Key: "basic_info", Label: "Basic Information", Description: "Core details about the device", Order: 2},
	{Key: "specifications", Label: "Specifications", Description: "Technical specifications of the device", Order: 3},
	{Key: "condition", Label: "Condition", Description: "Information about the physical condition", Order: 4},
	{Key: "pricing", Label: "Pricing", Description: "Price and value related information", Order: 5},
	{Key: "general", Label: "General", Description: "General purpose fields", Order: 6},
}

// FieldByValue returns the catalog entry for a canonical field value.
func FieldByValue(value string) (FieldSpec, bool) {
	for _, f := range Fields {
		if f.Value == value {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// RequiredFields lists the canonical fields a complete mapping must cover.
func RequiredFields() []string {
	var required []string
	for _, f := range Fields {
		if f.Required {
			required = append(required, f.Value)
		}
	}
	return required
}
