/*
go-evalbox evaluates computer-vision predictions against ground-truth labels.
It matches predicted bounding boxes or image-level class labels to ground
truth, computes COCO-style detection metrics or classification accuracy
metrics, builds confusion matrices and files every outcome into an error
taxonomy for review tooling.

The engine is a pure function of its inputs to its outputs: no I/O, no
logging, no state held across calls. Concurrent evaluations need no
coordination.

Annotation batches are loaded from files with the dataset subpackage, and the
cmd subdirectory holds a command line evaluator and an HTTP API server.
*/
package evalbox
