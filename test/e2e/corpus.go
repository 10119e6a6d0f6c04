// Package e2e provides end-to-end tests over a generated vocabulary and many queries.
package e2e

import (
	"encoding/json"
	"fmt"
)

// ConceptFixture is one vocabulary entry in the e2e corpus.
type ConceptFixture struct {
	ID         string
	Label      string
	Definition string
	Synonyms   []string
}

// QueryCase defines a query and the concept ID(s) that must appear in the
// resolved results. At least one of ExpectedIDs must be present.
type QueryCase struct {
	Query       string
	ExpectedIDs []string
	Description string
}

// Corpus holds the generated concepts and query cases.
type Corpus struct {
	Concepts []ConceptFixture
	Cases    []QueryCase
}

// phenotype topics with a unique signature query per concept. The literal
// scanner matches the normalized query as a contiguous substring, so the query
// phrases avoid stop words that normalization would strip.
var topics = []struct {
	label   string
	synonym string
	def     string
	query   string
}{
	{"Severe obesity", "super-morbid obesity", "Body mass index greater than 40.", "severe obesity"},
	{"Generalized tonic-clonic seizure", "grand mal seizure", "A seizure with bilateral tonic stiffening followed by clonic jerking.", "tonic-clonic seizure"},
	{"Hypertrophic cardiomyopathy", "asymmetric septal hypertrophy", "Thickening of the ventricular myocardium without dilatation.", "hypertrophic cardiomyopathy"},
	{"Proportionate short stature", "proportionate dwarfism", "Height below the third percentile with preserved body proportions.", "short stature"},
	{"Sensorineural hearing impairment", "perceptive deafness", "Hearing loss from inner ear or auditory nerve dysfunction.", "sensorineural hearing"},
	{"Bilateral cleft palate", "bilateral palatal cleft", "A cleft of the palate affecting both palatal shelves.", "cleft palate"},
	{"Macrocephaly at birth", "congenital large head", "Occipitofrontal circumference above the 97th percentile at birth.", "macrocephaly"},
	{"Progressive muscle weakness", "progressive myasthenia", "Loss of muscle strength that worsens over time.", "muscle weakness"},
	{"Infantile axial hypotonia", "floppy infant trunk", "Reduced muscle tone of the trunk appearing in infancy.", "axial hypotonia"},
	{"Delayed speech and language development", "speech delay", "Speech acquisition later than expected for age.", "delayed speech"},
	{"Retinitis pigmentosa", "rod-cone dystrophy", "Progressive retinal degeneration with night blindness.", "retinitis pigmentosa"},
	{"Polycystic kidney dysplasia", "multicystic renal dysplasia", "Replacement of renal parenchyma by multiple cysts.", "polycystic kidney"},
	{"Recurrent respiratory infections", "frequent chest infections", "Unusually frequent infections of the airways.", "respiratory infections"},
	{"Joint hypermobility", "loose-jointedness", "Range of joint movement beyond the normal limit.", "joint hypermobility"},
	{"Aortic root aneurysm", "dilatation of the aortic root", "Abnormal widening of the aortic root.", "aortic root aneurysm"},
	{"Cafe-au-lait spots", "light brown skin macules", "Flat hyperpigmented skin lesions the color of milky coffee.", "cafe-au-lait"},
	{"Optic nerve atrophy", "optic atrophy", "Degeneration of optic nerve fibers with pallor of the disc.", "optic nerve atrophy"},
	{"Hepatosplenomegaly", "enlarged liver and spleen", "Simultaneous enlargement of the liver and the spleen.", "hepatosplenomegaly"},
	{"Cerebellar ataxia", "cerebellar incoordination", "Incoordination of movement from cerebellar dysfunction.", "cerebellar ataxia"},
	{"Brachydactyly of the hands", "short fingers", "Shortening of the digits of the hand.", "brachydactyly"},
	{"Scoliosis of the thoracic spine", "thoracic spinal curvature", "Lateral curvature of the thoracic spine.", "scoliosis"},
	{"Neonatal hypoglycemia", "low blood sugar", "Abnormally low blood glucose in the neonatal period.", "neonatal hypoglycemia"},
	{"Microphthalmia", "abnormally small eye", "Decreased size of the globe of the eye.", "microphthalmia"},
	{"Pulmonary arterial hypertension", "elevated pulmonary artery pressure", "Increased blood pressure in the pulmonary arteries.", "pulmonary arterial hypertension"},
	{"Chronic intestinal pseudo-obstruction", "intestinal dysmotility syndrome", "Impaired peristalsis mimicking mechanical obstruction.", "intestinal pseudo-obstruction"},
	{"Nystagmus", "involuntary eye oscillation", "Rhythmic involuntary movement of the eyes.", "nystagmus"},
	{"Craniosynostosis", "premature suture fusion", "Premature fusion of one or more cranial sutures.", "craniosynostosis"},
	{"Gingival overgrowth", "gum hypertrophy", "Enlargement of the gingival tissue.", "gingival overgrowth"},
	{"Pes planus", "flat feet", "Flattening of the longitudinal arch of the foot.", "pes planus"},
	{"Thrombocytopenia", "low platelet count", "Platelet count below the lower limit of normal.", "thrombocytopenia"},
}

// BuildCorpus returns the generated concepts plus one query case per concept,
// and a synonym-phrase query for every third concept.
func BuildCorpus() *Corpus {
	c := &Corpus{}
	for i, tp := range topics {
		id := fmt.Sprintf("EX:%07d", i+1)
		c.Concepts = append(c.Concepts, ConceptFixture{
			ID:         id,
			Label:      tp.label,
			Definition: tp.def,
			Synonyms:   []string{tp.synonym},
		})
		c.Cases = append(c.Cases, QueryCase{
			Query:       tp.query,
			ExpectedIDs: []string{id},
			Description: fmt.Sprintf("label/%s", id),
		})
		if i%3 == 0 {
			c.Cases = append(c.Cases, QueryCase{
				Query:       tp.synonym,
				ExpectedIDs: []string{id},
				Description: fmt.Sprintf("synonym/%s", id),
			})
		}
	}
	return c
}

// SnapshotJSON renders the corpus as an obographs vocabulary snapshot.
func (c *Corpus) SnapshotJSON() ([]byte, error) {
	nodes := make([]map[string]any, 0, len(c.Concepts))
	for _, concept := range c.Concepts {
		meta := map[string]any{
			"definition": map[string]any{"val": concept.Definition},
		}
		syns := make([]map[string]any, 0, len(concept.Synonyms))
		for _, s := range concept.Synonyms {
			syns = append(syns, map[string]any{"pred": "hasExactSynonym", "val": s})
		}
		meta["synonyms"] = syns
		nodes = append(nodes, map[string]any{
			"id":   concept.ID,
			"lbl":  concept.Label,
			"type": "CLASS",
			"meta": meta,
		})
	}
	return json.Marshal(map[string]any{
		"graphs": []map[string]any{{"nodes": nodes}},
	})
}
