package halopsa

import (
	"strconv"

	"github.com/tombee/nodekit/internal/node"
)

// Resource is a HaloPSA API resource.
type Resource string

const (
	ResourceClient  Resource = "client"
	ResourceInvoice Resource = "invoice"
	ResourceSite    Resource = "site"
	ResourceTickets Resource = "tickets"
	ResourceUsers   Resource = "users"
)

// Resources lists the supported resources in display order.
var Resources = []Resource{ResourceClient, ResourceInvoice, ResourceSite, ResourceTickets, ResourceUsers}

// Record is the JSON object sent for one created or updated entity.
type Record map[string]any

// assembler collects the resource-specific fields of a create request for
// item i.
type assembler func(p node.Params, i int) (Record, error)

// assemblers maps each resource to its field assembly.
var assemblers = map[Resource]assembler{
	ResourceTickets: func(p node.Params, i int) (Record, error) {
		summary, err := node.String(p, "summary", i)
		if err != nil {
			return nil, err
		}
		details, err := node.StringOr(p, "details", i, "")
		if err != nil {
			return nil, err
		}
		return Record{"summary": summary, "details": details}, nil
	},

	ResourceClient: func(p node.Params, i int) (Record, error) {
		name, err := node.String(p, "clientName", i)
		if err != nil {
			return nil, err
		}
		vip, err := node.Bool(p, "clientIsVip", i, false)
		if err != nil {
			return nil, err
		}
		ref, err := node.StringOr(p, "clientRef", i, "")
		if err != nil {
			return nil, err
		}
		return Record{
			"name":    name,
			"is_vip":  vip,
			"ref":     ref,
			"website": raw(p, "sitesList", i),
		}, nil
	},

	ResourceUsers: func(p node.Params, i int) (Record, error) {
		name, err := node.String(p, "userName", i)
		if err != nil {
			return nil, err
		}
		return Record{"name": name, "site_id": raw(p, "sitesList", i)}, nil
	},

	ResourceSite: func(p node.Params, i int) (Record, error) {
		name, err := node.String(p, "siteName", i)
		if err != nil {
			return nil, err
		}
		return Record{"name": name, "client_id": raw(p, "clientsList", i)}, nil
	},

	ResourceInvoice: func(p node.Params, i int) (Record, error) {
		return Record{
			"client_id":    raw(p, "clientsList", i),
			"invoice_date": raw(p, "invoiceDate", i),
		}, nil
	},
}

// raw returns a dropdown or date value as given, or "" when unset.
func raw(p node.Params, name string, i int) any {
	if v, ok := p.Value(name, i); ok && v != nil {
		return v
	}
	return ""
}

// customFields decodes the fieldsToCreateOrUpdate collection into a record.
// Later entries win when a field name repeats.
func customFields(p node.Params, i int) (Record, error) {
	var collection struct {
		Fields []struct {
			FieldName  string `json:"fieldName"`
			FieldValue any    `json:"fieldValue"`
		} `json:"fields"`
	}
	if err := node.Decode(p, "fieldsToCreateOrUpdate", i, &collection); err != nil {
		return nil, err
	}

	rec := Record{}
	for _, f := range collection.Fields {
		if f.FieldName == "" {
			return nil, node.NewOperationError("every field in %q needs a name", "fieldsToCreateOrUpdate")
		}
		rec[f.FieldName] = f.FieldValue
	}
	return rec, nil
}

// createRecord assembles the full record for a create request. Resource
// fields win over custom fields of the same name.
func createRecord(resource Resource, p node.Params, i int) (Record, error) {
	assemble, ok := assemblers[resource]
	if !ok {
		return nil, node.NewOperationError("the resource %q is not known", resource)
	}

	rec, err := customFields(p, i)
	if err != nil {
		return nil, err
	}
	fields, err := assemble(p, i)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		rec[k] = v
	}
	return rec, nil
}

// recordID sends decimal ids as numbers and anything else verbatim.
func recordID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
